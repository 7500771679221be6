package ton

import (
	"time"

	"github.com/xssnick/tonutils-go/address"
)

// Тип сети TON
type Network string

const (
	NetworkMainnet Network = "mainnet"
	NetworkTestnet Network = "testnet"
)

// конечные точки TON API
const (
	TonAPIMainnet = "https://tonapi.io/v2"
	TonAPITestnet = "https://testnet.tonapi.io/v2"
)

const (
	// наименьшая единица TON (1 TON = 10^9 наноTON)
	NanoTON = 1_000_000_000

	// минимальная сумма депозита в наноTON
	MinDepositNano = 100_000_000 // 0.1 TON

	// интервал проверки новых депозитов
	DepositCheckInterval = 30 * time.Second
)

// конвертирует наноTON в TON
func NanoToTON(nano int64) float64 {
	return float64(nano) / NanoTON
}

// конвертирует наноTON в звезды по переданному курсу
func NanoToStars(nano int64, starsPerTON int64) int64 {
	return int64(NanoToTON(nano) * float64(starsPerTON))
}

// NormalizeAddress приводит адрес к user-friendly bounceable форме.
// один и тот же кошелек встречается в raw и friendly форматах
func NormalizeAddress(addr string) (string, error) {
	parsed, err := address.ParseAddr(addr)
	if err != nil {
		// возможно raw формат 0:hex
		parsed, err = address.ParseRawAddr(addr)
		if err != nil {
			return "", err
		}
	}
	return parsed.String(), nil
}
