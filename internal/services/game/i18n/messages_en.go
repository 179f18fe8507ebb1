package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, MoneyKey, "$%d")

	message.SetString(lang, HeaderPlayerKey, "Player")
	message.SetString(lang, HeaderCashKey, "Cash")
	message.SetString(lang, HeaderCertsKey, "Certs")
	message.SetString(lang, HeaderSharesKey, "Shares")
	message.SetString(lang, HeaderPrivatesKey, "Privates")
	message.SetString(lang, HeaderWorthKey, "Worth")
	message.SetString(lang, HeaderRankKey, "#")
	message.SetString(lang, HeaderCompanyKey, "Company")
	message.SetString(lang, HeaderPresidentKey, "President")
	message.SetString(lang, HeaderParKey, "Par")
	message.SetString(lang, HeaderPriceKey, "Price")
	message.SetString(lang, HeaderTreasuryKey, "Treasury")
	message.SetString(lang, HeaderTrainsKey, "Trains")
	message.SetString(lang, HeaderIPOKey, "IPO")
	message.SetString(lang, HeaderPoolKey, "Pool")
	message.SetString(lang, HeaderTokensKey, "Tokens")
	message.SetString(lang, HeaderActionKey, "Action")
	message.SetString(lang, HeaderEventKey, "Event")
	message.SetString(lang, HeaderSeqKey, "Seq")
	message.SetString(lang, HeaderRoundKey, "Round")

	message.SetString(lang, RoundStartKey, "Start round")
	message.SetString(lang, RoundStockKey, "Stock round %d")
	message.SetString(lang, RoundOperatingKey, "Operating round %d.%d of %d")
	message.SetString(lang, GameOverKey, "Game over")

	message.SetString(lang, PhaseKey, "Phase %s")
	message.SetString(lang, BankKey, "Bank %s")
	message.SetString(lang, TurnKey, "%s to act")
	message.SetString(lang, PriorityKey, "priority")
	message.SetString(lang, NoActionsKey, "No actions available")
	message.SetString(lang, GameEndedKey, "Game ended: %s")
}
