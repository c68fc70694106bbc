package v0_rest

import "github.com/meower-media/replybot/pkg/guilds"

type BaseResp struct {
	Error bool `json:"error"`
}

type ErrResp struct {
	Error  bool              `json:"error"`
	Type   string            `json:"type"`
	Fields map[string]string `json:"fields,omitempty"`
}

type StatusResp struct {
	Error        bool   `json:"error"`
	EventsSource string `json:"events_source"`
}

type SettingsResp struct {
	Error    bool                 `json:"error"`
	Settings guilds.Configuration `json:"settings"`
	Summary  string               `json:"summary"`
}

type UpdateSettingsResp struct {
	Error    bool                 `json:"error"`
	Settings guilds.Configuration `json:"settings"`
	Message  string               `json:"message"`
}
