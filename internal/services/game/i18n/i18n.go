// Package i18n registers the game's display strings with golang.org/x/text.
//
// Keys double as message references for message.Printer. Numbers printed
// through a Printer pick up the locale's digit grouping.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	MoneyKey = "money.amount"

	HeaderPlayerKey    = "header.player"
	HeaderCashKey      = "header.cash"
	HeaderCertsKey     = "header.certs"
	HeaderSharesKey    = "header.shares"
	HeaderPrivatesKey  = "header.privates"
	HeaderWorthKey     = "header.worth"
	HeaderRankKey      = "header.rank"
	HeaderCompanyKey   = "header.company"
	HeaderPresidentKey = "header.president"
	HeaderParKey       = "header.par"
	HeaderPriceKey     = "header.price"
	HeaderTreasuryKey  = "header.treasury"
	HeaderTrainsKey    = "header.trains"
	HeaderIPOKey       = "header.ipo"
	HeaderPoolKey      = "header.pool"
	HeaderTokensKey    = "header.tokens"
	HeaderActionKey    = "header.action"
	HeaderEventKey     = "header.event"
	HeaderSeqKey       = "header.seq"
	HeaderRoundKey     = "header.round"

	RoundStartKey     = "round.start"
	RoundStockKey     = "round.stock"
	RoundOperatingKey = "round.operating"
	GameOverKey       = "round.game_over"

	PhaseKey     = "view.phase"
	BankKey      = "view.bank"
	TurnKey      = "view.turn"
	PriorityKey  = "view.priority"
	NoActionsKey = "view.no_actions"
	GameEndedKey = "view.game_ended"
)

// DefaultLocale is used when a requested locale is unknown.
var DefaultLocale = language.English

// Locales lists the locales with registered strings.
func Locales() []language.Tag {
	return []language.Tag{language.English, language.MustParse("pt-BR")}
}

var matcher = language.NewMatcher(Locales())

// Printer returns a message printer for the best match of locale.
func Printer(locale string) *message.Printer {
	tag := DefaultLocale
	if parsed, err := language.Parse(locale); err == nil {
		_, i, _ := matcher.Match(parsed)
		tag = Locales()[i]
	}
	return message.NewPrinter(tag)
}
