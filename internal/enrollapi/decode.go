package enrollapi

import (
	"encoding/json"
	"strings"

	"youareloved-web/internal/model"
)

// The API has shipped several response shapes over time. Everything that
// tolerates them lives in this file; callers only ever see model types.

// flexString accepts a JSON string or number. Telegram chat ids are
// sometimes sent as numbers.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type wirePartner struct {
	PartnerName     flexString `json:"partner_name"`
	Name            flexString `json:"name"`
	PartnerTelegram flexString `json:"partner_telegram"`
	Telegram        flexString `json:"telegram"`
	PartnerEmail    flexString `json:"partner_email"`
	Email           flexString `json:"email"`
}

func firstNonEmpty(values ...flexString) string {
	for _, v := range values {
		if s := strings.TrimSpace(string(v)); s != "" {
			return s
		}
	}
	return ""
}

func (w wirePartner) partner() model.Partner {
	return model.Partner{
		Name:     firstNonEmpty(w.PartnerName, w.Name),
		Telegram: firstNonEmpty(w.PartnerTelegram, w.Telegram),
		Email:    firstNonEmpty(w.PartnerEmail, w.Email),
	}
}

func decodePartners(in []wirePartner) []model.Partner {
	out := make([]model.Partner, 0, len(in))
	for _, w := range in {
		p := w.partner()
		if p.Name == "" || p.Telegram == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

type partnersEnvelope struct {
	Partners []wirePartner `json:"partners"`
	Data     *struct {
		Partners []wirePartner `json:"partners"`
	} `json:"data"`
}

// list prefers the top-level array whenever the key is present, even if
// it is empty.
func (e partnersEnvelope) list() []model.Partner {
	if e.Partners != nil {
		return decodePartners(e.Partners)
	}
	if e.Data != nil {
		return decodePartners(e.Data.Partners)
	}
	return []model.Partner{}
}

type accountResponse struct {
	Email     flexString `json:"email"`
	FirstName flexString `json:"firstname"`
	partnersEnvelope
}

type registerResponse struct {
	Token string `json:"token"`
}

type enrollResponse struct {
	DownloadURL string `json:"download_url"`
}

type registerBody struct {
	Email     string `json:"email"`
	FirstName string `json:"firstname"`
	Password  string `json:"password"`
}

type createPartnerBody struct {
	UserEmail       string `json:"user_email"`
	PartnerName     string `json:"partner_name"`
	PartnerTelegram string `json:"partner_telegram"`
	PartnerEmail    string `json:"partner_email,omitempty"`
}

type enrollBody struct {
	FirstName string `json:"firstname"`
	UserEmail string `json:"user_email"`
}
