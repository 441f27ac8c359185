package ruleset

import "github.com/copyintel/shrike/internal/domain"

// Default returns the builtin persuasion typology rule set used when no
// rule document is configured. Thresholds and weights are tuned for
// short-form ad copy; override them with a custom document for other
// text shapes.
func Default() *domain.RuleSet {
	rules := []domain.TypologyRule{
		{
			Key:         "urgency_scarcity",
			Name:        "Urgency/Scarcity",
			Description: "Pressure through time limits or limited availability",
			Threshold:   0.8,
			Patterns: []domain.PatternRule{
				{Regex: `\b(last chance|hurry|act now|don'?t miss|final hours?)\b`, Weight: 1.0},
				{Regex: `\b(today only|ends (tonight|today|soon)|limited time)\b`, Weight: 1.0},
				{Regex: `\b(only \d+ left|while (supplies|stocks?) last|selling (out|fast))\b`, Weight: 1.0},
				{Regex: `\b(expires?|deadline|countdown)\b`, Weight: 0.6},
			},
		},
		{
			Key:         "social_proof",
			Name:        "Social Proof",
			Description: "Credibility through other people's adoption or approval",
			Threshold:   0.8,
			Patterns: []domain.PatternRule{
				{Regex: `\b(join|trusted by) (thousands|millions|\d[\d,]*\+?) (of )?(happy |satisfied )?(customers|users|members|people)\b`, Weight: 1.2},
				{Regex: `\b(\d[\d,]*\+? five[- ]star reviews?|rated \d(\.\d)?(/| out of )5)\b`, Weight: 1.0},
				{Regex: `\b(best[- ]?sell(er|ing)|most popular|customer favorite)\b`, Weight: 0.8},
				{Regex: `\b(as seen (in|on)|featured (in|on))\b`, Weight: 0.8},
				{Regex: `\b(testimonial|everyone('s| is) (talking about|using))\b`, Weight: 0.6},
			},
		},
		{
			Key:         "problem_solution",
			Name:        "Problem / Solution Framing",
			Description: "Naming a pain point and positioning the product as the fix",
			Threshold:   0.8,
			Patterns: []domain.PatternRule{
				{Regex: `\b(tired of|sick of|fed up with|struggling (with|to))\b`, Weight: 1.0},
				{Regex: `\b(say goodbye to|no more|never (worry|struggle) (about|with)?)\b`, Weight: 1.0},
				{Regex: `\b(the (solution|answer|fix) (to|for)|solve[sd]? your)\b`, Weight: 1.0},
				{Regex: `\bwithout (the )?(hassle|stress|pain|effort)\b`, Weight: 0.8},
			},
		},
		{
			Key:         "value_proposition",
			Name:        "Value Proposition / Discount",
			Description: "Explicit savings, discounts, or free offers",
			Threshold:   0.8,
			Patterns: []domain.PatternRule{
				{Regex: `\b(save|off) (up to )?\d+%|\d+% (off|discount)\b`, Weight: 1.0},
				{Regex: `\b(free (shipping|trial|gift|sample)|buy one,? get one|bogo)\b`, Weight: 1.0},
				{Regex: `\b(best (price|value|deal)|lowest price|price match)\b`, Weight: 0.8},
				{Regex: `\b(no (hidden )?(fees|cost)|money[- ]back guarantee)\b`, Weight: 0.8},
			},
		},
		{
			Key:         "authority_expertise",
			Name:        "Authority / Expertise",
			Description: "Appeals to experts, science, awards, or credentials",
			Threshold:   0.8,
			Patterns: []domain.PatternRule{
				{Regex: `\b((doctor|dermatologist|dentist|expert|vet)[- ]?(recommended|approved|developed))\b`, Weight: 1.2},
				{Regex: `\b(clinically (proven|tested)|science[- ]backed|lab[- ]tested)\b`, Weight: 1.0},
				{Regex: `\b(award[- ]winning|patented|certified|industry[- ]leading)\b`, Weight: 0.8},
				{Regex: `\b(\d+\+? years? of (experience|expertise))\b`, Weight: 0.8},
			},
		},
		{
			Key:         "emotional_appeal",
			Name:        "Emotional Appeal",
			Description: "Aspirational or feeling-driven language",
			Threshold:   0.8,
			Patterns: []domain.PatternRule{
				{Regex: `\b(feel (amazing|confident|beautiful|unstoppable|your best))\b`, Weight: 1.0},
				{Regex: `\b(you deserve|treat yourself|imagine (a|your|yourself))\b`, Weight: 1.0},
				{Regex: `\b(love your|fall in love (with)?|happiness|joy)\b`, Weight: 0.8},
				{Regex: `\b(transform your (life|body|home|skin)|life[- ]changing)\b`, Weight: 1.0},
			},
		},
		{
			Key:         "call_to_action",
			Name:        "Direct Call-to-Action",
			Description: "Imperative instructions to act immediately",
			Threshold:   1.0,
			Patterns: []domain.PatternRule{
				{Regex: `\b(shop|buy|order|book|call) now\b`, Weight: 1.0},
				{Regex: `\b(sign up|get started|learn more|try (it )?free|download (now|today)?)\b`, Weight: 0.8},
				{Regex: `\b(click|tap) (here|below|the link)\b`, Weight: 0.8},
				{Regex: `\b(claim your|get yours?|grab yours?)\b`, Weight: 0.8},
			},
		},
		{
			Key:         "curiosity_intrigue",
			Name:        "Curiosity / Intrigue",
			Description: "Withheld information that invites a click",
			Threshold:   0.8,
			Patterns: []domain.PatternRule{
				{Regex: `\b(the secret (to|behind)|secrets? (they|nobody) (don'?t want you to know|tells? you))\b`, Weight: 1.2},
				{Regex: `\b(you won'?t believe|what happens (next|when))\b`, Weight: 1.0},
				{Regex: `\b(little[- ]known|hidden (trick|gem|benefit)|one weird trick)\b`, Weight: 1.0},
				{Regex: `\b(guess what|find out (why|how|what))\b`, Weight: 0.8},
			},
		},
	}

	rs := &domain.RuleSet{
		Typologies: make(map[string]domain.TypologyRule, len(rules)),
		Order:      make([]string, 0, len(rules)),
		Settings:   domain.Settings{MaxLabelsPerItem: 3},
	}
	for _, r := range rules {
		rs.Typologies[r.Key] = r
		rs.Order = append(rs.Order, r.Key)
	}
	return rs
}
