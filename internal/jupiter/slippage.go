package jupiter

import (
	"strings"

	"github.com/pkg/errors"
)

// Slippage is a legacy slippage tolerance rendered as a query fragment.
type Slippage int

const (
	SlippageZero Slippage = iota
	SlippageZeroBip
	SlippageOneBip
	SlippageTwoBip
	SlippageFiveBip
	SlippageSevenFiveBip
	SlippageTenBip
	SlippageFifteenBip
	SlippageTwentyBip
	SlippageFiftyBip
	SlippageSeventyFiveBip
	SlippageOneHundredFiftyBip
)

const DefaultSlippage = SlippageTenBip

var slippageValues = map[Slippage]string{
	SlippageZero:               "",
	SlippageZeroBip:            "&slippage=0.000001",
	SlippageOneBip:             "&slippage=0.01",
	SlippageTwoBip:             "&slippage=0.02",
	SlippageFiveBip:            "&slippage=0.05",
	SlippageSevenFiveBip:       "&slippage=0.075",
	SlippageTenBip:             "&slippage=0.10",
	SlippageFifteenBip:         "&slippage=0.15",
	SlippageTwentyBip:          "&slippage=0.20",
	SlippageFiftyBip:           "&slippage=0.50",
	SlippageSeventyFiveBip:     "&slippage=0.75",
	SlippageOneHundredFiftyBip: "&slippage=1.50",
}

var slippageNames = map[string]Slippage{
	"":       SlippageZero,
	"zero":   SlippageZero,
	"0bip":   SlippageZeroBip,
	"1bip":   SlippageOneBip,
	"2bip":   SlippageTwoBip,
	"5bip":   SlippageFiveBip,
	"7.5bip": SlippageSevenFiveBip,
	"10bip":  SlippageTenBip,
	"15bip":  SlippageFifteenBip,
	"20bip":  SlippageTwentyBip,
	"50bip":  SlippageFiftyBip,
	"75bip":  SlippageSeventyFiveBip,
	"150bip": SlippageOneHundredFiftyBip,
}

func (s Slippage) Value() string {
	return slippageValues[s]
}

// ParseSlippage accepts names such as "10bip" or "7.5bip".
func ParseSlippage(name string) (Slippage, error) {
	s, ok := slippageNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, errors.Errorf("unknown slippage %q", name)
	}
	return s, nil
}

// FeeBps is a platform fee rendered as a query fragment.
type FeeBps int

const (
	FeeBpsZero FeeBps = iota
	FeeBpsOneBip
	FeeBpsTenBip
	FeeBpsFifteenBip
	FeeBpsTwentyBip
	FeeBpsFiftyBip
	FeeBpsSeventyFiveBip
	FeeBpsOneHundredFiftyBip
)

var feeBpsValues = map[FeeBps]string{
	FeeBpsZero:               "",
	FeeBpsOneBip:             "&feesBps=0.01",
	FeeBpsTenBip:             "&feesBps=0.10",
	FeeBpsFifteenBip:         "&feesBps=0.15",
	FeeBpsTwentyBip:          "&feesBps=0.20",
	FeeBpsFiftyBip:           "&feesBps=0.50",
	FeeBpsSeventyFiveBip:     "&feesBps=0.75",
	FeeBpsOneHundredFiftyBip: "&feesBps=1.50",
}

var feeBpsNames = map[string]FeeBps{
	"":       FeeBpsZero,
	"zero":   FeeBpsZero,
	"1bip":   FeeBpsOneBip,
	"10bip":  FeeBpsTenBip,
	"15bip":  FeeBpsFifteenBip,
	"20bip":  FeeBpsTwentyBip,
	"50bip":  FeeBpsFiftyBip,
	"75bip":  FeeBpsSeventyFiveBip,
	"150bip": FeeBpsOneHundredFiftyBip,
}

func (f FeeBps) Value() string {
	return feeBpsValues[f]
}

func ParseFeeBps(name string) (FeeBps, error) {
	f, ok := feeBpsNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, errors.Errorf("unknown fee bps %q", name)
	}
	return f, nil
}

// WithSlippage appends the legacy slippage fragment.
func WithSlippage(s Slippage) RequestOption {
	return func(url *strings.Builder) {
		url.WriteString(s.Value())
	}
}

// WithFeeBps appends the legacy platform fee fragment.
func WithFeeBps(f FeeBps) RequestOption {
	return func(url *strings.Builder) {
		url.WriteString(f.Value())
	}
}
