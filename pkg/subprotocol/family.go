package subprotocol

// Family identifies the application protocol that handles an upgraded
// connection.
type Family int

const (
	// FamilySTOMP handles STOMP over WebSocket. It is the fallback family.
	FamilySTOMP Family = iota
	// FamilyMQTT handles MQTT over WebSocket.
	FamilyMQTT
)

// Families lists every supported family in declaration order.
var Families = []Family{FamilySTOMP, FamilyMQTT}

// String returns the lowercase family name used in logs and metric labels.
func (f Family) String() string {
	switch f {
	case FamilySTOMP:
		return "stomp"
	case FamilyMQTT:
		return "mqtt"
	default:
		return "unknown"
	}
}

// DefaultToken returns the token accepted when none of the offered
// sub-protocols is registered for the family. The default is returned
// literally and need not appear in the family's table.
func (f Family) DefaultToken() string {
	switch f {
	case FamilyMQTT:
		return "mqtt"
	default:
		return "stomp"
	}
}

// Valid reports whether f is a supported family.
func (f Family) Valid() bool {
	return f == FamilySTOMP || f == FamilyMQTT
}

// ParseFamily parses a family name as returned by String.
func ParseFamily(s string) (Family, bool) {
	for _, f := range Families {
		if f.String() == s {
			return f, true
		}
	}
	return FamilySTOMP, false
}
