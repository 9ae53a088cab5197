package subprotocol

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		candidates []string
		want       Family
	}{
		{"empty", nil, FamilySTOMP},
		{"stomp only", []string{"v12.stomp", "v11.stomp"}, FamilySTOMP},
		{"mqtt only", []string{"mqtt"}, FamilyMQTT},
		{"mqtt wins over stomp", []string{"mqtt", "v10.stomp"}, FamilyMQTT},
		{"mqtt position irrelevant", []string{"v10.stomp", "mqttv3.1"}, FamilyMQTT},
		{"unregistered mqtt prefix", []string{"mqtt-sn"}, FamilyMQTT},
		{"prefix is case-sensitive", []string{"MQTT"}, FamilySTOMP},
		{"prefix must lead", []string{"x-mqtt"}, FamilySTOMP},
		{"unknown tokens", []string{"graphql-ws"}, FamilySTOMP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.candidates))
		})
	}
}

func TestNegotiate(t *testing.T) {
	reg := DefaultRegistry()

	tests := []struct {
		name       string
		candidates []string
		want       Result
	}{
		{"empty", nil, Result{FamilySTOMP, "stomp"}},
		{"stomp 1.2", []string{"v12.stomp", "v10.stomp"}, Result{FamilySTOMP, "v12.stomp"}},
		{"mqtt 3.1", []string{"mqttv3.1"}, Result{FamilyMQTT, "mqttv3.1"}},
		{"mixed offers classify as mqtt", []string{"mqtt", "v10.stomp"}, Result{FamilyMQTT, "mqtt"}},
		{"unregistered mqtt falls back", []string{"mqtt-sn"}, Result{FamilyMQTT, "mqtt"}},
		{"unknown falls back to stomp", []string{"wamp.2.json"}, Result{FamilySTOMP, "stomp"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := Negotiate(reg, tt.candidates)
			second := Negotiate(reg, tt.candidates)
			assert.Equal(t, tt.want, first)
			assert.Equal(t, first, second)
		})
	}
}

func TestParseHeader(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  []string
	}{
		{"absent", nil, nil},
		{"single", []string{"v12.stomp"}, []string{"v12.stomp"}},
		{"comma separated", []string{"v12.stomp, v11.stomp,v10.stomp"}, []string{"v12.stomp", "v11.stomp", "v10.stomp"}},
		{"repeated lines keep order", []string{"mqtt", "v10.stomp"}, []string{"mqtt", "v10.stomp"}},
		{"blank tokens dropped", []string{" , ,mqtt,, "}, []string{"mqtt"}},
		{"only blanks", []string{" , "}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for _, l := range tt.lines {
				h.Add(HeaderName, l)
			}
			assert.Equal(t, tt.want, ParseHeader(h))
		})
	}
}
