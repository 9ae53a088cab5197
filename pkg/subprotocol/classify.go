package subprotocol

import "strings"

// MQTTPrefix marks a token as belonging to the MQTT family.
const MQTTPrefix = "mqtt"

// Classify decides which family handles a connection offering candidates.
// A single token starting with MQTTPrefix is enough to select FamilyMQTT,
// wherever it appears in the list. Everything else, including an empty
// list, is FamilySTOMP. The prefix test is case-sensitive.
func Classify(candidates []string) Family {
	for _, c := range candidates {
		if strings.HasPrefix(c, MQTTPrefix) {
			return FamilyMQTT
		}
	}
	return FamilySTOMP
}
