package service

import "sentinel_bot/internal/models"

// accountsFor lists the accounts a chat may control. The admin chat
// controls all of them.
func (t *Telegram) accountsFor(chatID int64) []models.Account {
	if chatID != 0 && chatID == t.cfg.Telegram.ChatID {
		return t.cfg.Accounts
	}
	var out []models.Account
	for _, acc := range t.cfg.Accounts {
		if acc.ChatID == chatID {
			out = append(out, acc)
		}
	}
	return out
}

// pick selects one account by id, or the only one the chat owns.
func pick(accs []models.Account, id int64) (models.Account, bool) {
	if id == 0 && len(accs) == 1 {
		return accs[0], true
	}
	for _, acc := range accs {
		if acc.ID == id {
			return acc, true
		}
	}
	return models.Account{}, false
}
