package models

// Account is one trading account the supervisor can run a session for.
type Account struct {
	ID        int64    `yaml:"id" json:"id"`
	Name      string   `yaml:"name" json:"name"`
	ChatID    int64    `yaml:"chat_id" json:"chat_id"`
	BridgeURL string   `yaml:"bridge_url" json:"bridge_url"`
	Login     int64    `yaml:"login" json:"login"`
	Password  string   `yaml:"password" json:"-"`
	Server    string   `yaml:"server" json:"server"`
	Symbols   []string `yaml:"symbols" json:"symbols"`
	Autostart bool     `yaml:"autostart" json:"autostart"`
	Paper     bool     `yaml:"paper" json:"paper"`
	Balance   float64  `yaml:"paper_balance" json:"paper_balance"`
}
