package messaging

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
)

// AnnounceService renders templated server announcements. The MOTD
// goes to a single session on world entry; Announce publishes to the
// whole server over the bus.
type AnnounceService struct {
	motd *template.Template
	bus  *Bus
}

// motdData is what the MOTD template can reference.
type motdData struct {
	Character string
	Time      time.Time
}

func NewAnnounceService(motdTemplate string, bus *Bus) (*AnnounceService, error) {
	tmpl, err := template.New("motd").Funcs(sprig.TxtFuncMap()).Parse(motdTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing motd template: %w", err)
	}
	return &AnnounceService{motd: tmpl, bus: bus}, nil
}

// Motd renders the message-of-the-day for one character.
func (a *AnnounceService) Motd(character string) (string, error) {
	var buf bytes.Buffer
	err := a.motd.Execute(&buf, motdData{
		Character: character,
		Time:      time.Now(),
	})
	if err != nil {
		return "", fmt.Errorf("rendering motd: %w", err)
	}
	return buf.String(), nil
}

// Announce publishes a server-wide announcement.
func (a *AnnounceService) Announce(text string) error {
	return a.bus.PublishAnnounce(text)
}
