package widget

import "github.com/vovakirdan/wirechat-widget/internal/i18n"

// PeerAvailability is the last known operator status.
type PeerAvailability int

const (
	PeerUnknown PeerAvailability = iota
	PeerOnline
	PeerOffline
)

func (p PeerAvailability) String() string {
	switch p {
	case PeerOnline:
		return "online"
	case PeerOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// Label returns the human readable status in the given translation.
func (p PeerAvailability) Label(tr i18n.Translations) string {
	switch p {
	case PeerOnline:
		return tr.StatusOnline
	case PeerOffline:
		return tr.StatusOffline
	default:
		return tr.StatusUnknown
	}
}

func availabilityFrom(online bool, err error) PeerAvailability {
	switch {
	case err != nil:
		return PeerUnknown
	case online:
		return PeerOnline
	default:
		return PeerOffline
	}
}
