package domain

import (
	"fmt"
	"strings"
)

const DefaultProtocolName = "16:8"

type Protocol struct {
	Name      string
	FastHours float64
	EatHours  float64
}

var protocols = []Protocol{
	{Name: "12:12", FastHours: 12, EatHours: 12},
	{Name: "14:10", FastHours: 14, EatHours: 10},
	{Name: "16:8", FastHours: 16, EatHours: 8},
	{Name: "18:6", FastHours: 18, EatHours: 6},
	{Name: "20:4", FastHours: 20, EatHours: 4},
	{Name: "OMAD", FastHours: 23, EatHours: 1},
	{Name: "36h", FastHours: 36},
	{Name: "48h", FastHours: 48},
	{Name: "72h", FastHours: 72},
}

func Protocols() []Protocol {
	out := make([]Protocol, len(protocols))
	copy(out, protocols)
	return out
}

func ProtocolByName(name string) (Protocol, error) {
	trimmed := strings.TrimSpace(name)
	for _, protocol := range protocols {
		if strings.EqualFold(protocol.Name, trimmed) {
			return protocol, nil
		}
	}

	return Protocol{}, fmt.Errorf("%w: %q", ErrUnknownProtocol, name)
}

func DefaultProtocol() Protocol {
	protocol, _ := ProtocolByName(DefaultProtocolName)
	return protocol
}

// Label renders "16:8" style pairs; extended fasts have no eating window.
func (p Protocol) Label() string {
	if p.EatHours <= 0 {
		return fmt.Sprintf("%s (%gh fast)", p.Name, p.FastHours)
	}
	return fmt.Sprintf("%s (%gh fast / %gh eat)", p.Name, p.FastHours, p.EatHours)
}
