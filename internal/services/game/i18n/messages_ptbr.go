package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.MustParse("pt-BR")

	message.SetString(lang, MoneyKey, "R$ %d")

	message.SetString(lang, HeaderPlayerKey, "Jogador")
	message.SetString(lang, HeaderCashKey, "Caixa")
	message.SetString(lang, HeaderCertsKey, "Certificados")
	message.SetString(lang, HeaderSharesKey, "Ações")
	message.SetString(lang, HeaderPrivatesKey, "Privadas")
	message.SetString(lang, HeaderWorthKey, "Patrimônio")
	message.SetString(lang, HeaderRankKey, "#")
	message.SetString(lang, HeaderCompanyKey, "Companhia")
	message.SetString(lang, HeaderPresidentKey, "Presidente")
	message.SetString(lang, HeaderParKey, "Par")
	message.SetString(lang, HeaderPriceKey, "Cotação")
	message.SetString(lang, HeaderTreasuryKey, "Tesouro")
	message.SetString(lang, HeaderTrainsKey, "Trens")
	message.SetString(lang, HeaderIPOKey, "IPO")
	message.SetString(lang, HeaderPoolKey, "Mercado")
	message.SetString(lang, HeaderTokensKey, "Estações")
	message.SetString(lang, HeaderActionKey, "Ação")
	message.SetString(lang, HeaderEventKey, "Evento")
	message.SetString(lang, HeaderSeqKey, "Seq")
	message.SetString(lang, HeaderRoundKey, "Rodada")

	message.SetString(lang, RoundStartKey, "Rodada inicial")
	message.SetString(lang, RoundStockKey, "Rodada de ações %d")
	message.SetString(lang, RoundOperatingKey, "Rodada de operação %d.%d de %d")
	message.SetString(lang, GameOverKey, "Fim de jogo")

	message.SetString(lang, PhaseKey, "Fase %s")
	message.SetString(lang, BankKey, "Banco %s")
	message.SetString(lang, TurnKey, "Vez de %s")
	message.SetString(lang, PriorityKey, "prioridade")
	message.SetString(lang, NoActionsKey, "Nenhuma ação disponível")
	message.SetString(lang, GameEndedKey, "Jogo encerrado: %s")
}
