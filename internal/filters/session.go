package filters

import (
	"strings"
	"time"
)

// Session is an hour window in UTC. Start > End wraps past midnight.
type Session struct {
	Name  string `yaml:"name"`
	Start int    `yaml:"start"`
	End   int    `yaml:"end"`
}

func (s Session) Contains(hour int) bool {
	if s.Start < s.End {
		return s.Start <= hour && hour < s.End
	}
	return hour >= s.Start || hour < s.End
}

func DefaultSessions() []Session {
	return []Session{
		{Name: "London", Start: 7, End: 16},
		{Name: "NewYork", Start: 13, End: 22},
		{Name: "Asia", Start: 23, End: 6},
	}
}

type Schedule struct {
	Clock              Clock
	Sessions           []Session
	CryptoSymbols      []string
	AllowWeekendCrypto bool
}

// IsCrypto matches by prefix so broker suffixes (BTCUSDm) still count.
func (s *Schedule) IsCrypto(symbol string) bool {
	up := strings.ToUpper(symbol)
	for _, c := range s.CryptoSymbols {
		if strings.HasPrefix(up, strings.ToUpper(c)) {
			return true
		}
	}
	return false
}

// Tradable applies the weekend rule first, then the session windows.
func (s *Schedule) Tradable(symbol string) bool {
	now := s.now()
	if wd := now.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return s.AllowWeekendCrypto && s.IsCrypto(symbol)
	}
	return s.InSession(now)
}

func (s *Schedule) InSession(now time.Time) bool {
	hour := now.UTC().Hour()
	for _, sess := range s.Sessions {
		if sess.Contains(hour) {
			return true
		}
	}
	return false
}

func (s *Schedule) now() time.Time {
	if s.Clock == nil {
		return SystemClock().Now()
	}
	return s.Clock.Now()
}
