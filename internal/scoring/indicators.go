package scoring

// Indicators holds the intent phrase lists scanned during analysis. Phrases
// are matched on word boundaries against normalized token text, so multi-word
// entries are fine.
type Indicators struct {
	Selling       []string `yaml:"selling"`
	Buying        []string `yaml:"buying"`
	Informational []string `yaml:"informational"`
	Payment       []string `yaml:"payment"`
	Location      []string `yaml:"location"`
	Urgency       []string `yaml:"urgency"`
}

// DefaultIndicators returns the built-in phrase lists. Tuned against field
// samples of marketplace-style posts; override via config for other locales.
func DefaultIndicators() Indicators {
	return Indicators{
		Selling: []string{
			"available",
			"for sale",
			"selling",
			"dm",
			"dm me",
			"hmu",
			"hit me up",
			"in stock",
			"got that",
			"prices",
			"menu",
			"shipping available",
		},
		Buying: []string{
			"looking for",
			"need",
			"iso",
			"in search of",
			"anyone got",
			"anyone know where",
			"who got",
			"where can i find",
			"trying to get",
			"buying",
		},
		Informational: []string{
			"what is",
			"what are",
			"effects of",
			"side effects",
			"how does",
			"how long does",
			"is it safe",
			"research",
			"study",
			"article",
		},
		Payment: []string{
			"cashapp",
			"cash app",
			"venmo",
			"zelle",
			"paypal",
			"cash only",
			"bitcoin",
			"btc",
			"crypto",
			"gift card",
		},
		Location: []string{
			"meet",
			"meetup",
			"meet up",
			"pickup",
			"pick up",
			"drop off",
			"delivery",
			"deliver",
			"local",
			"in the area",
			"my area",
			"near me",
			"zip code",
		},
		Urgency: []string{
			"asap",
			"today only",
			"right now",
			"tonight",
			"limited supply",
			"while it lasts",
			"act fast",
			"going fast",
			"last batch",
		},
	}
}
