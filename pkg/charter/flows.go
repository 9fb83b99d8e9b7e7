package charter

import "github.com/packfolio/concierge/pkg/domain"

const discoverySystemPrompt = `You match a customer's free-text request against a packaging catalog.
Reply with a single JSON object and nothing else.
Shapes:
  {"kind":"found","id":"<package id>","reason":"<why>"}
  {"kind":"multiple","matches":[{"id":"<n>","catalog_id":"<package id>","name":"<title>","reason":"<why>"}]}  (at most 5)
  {"kind":"chat","reply":"<short conversational answer>"}
  {"kind":"none"}
Use "found" only for a single unambiguous match. Use "chat" when the
customer is asking a question rather than describing what they need.`

const variantSystemPrompt = `You match a customer's free-text choice against a list of package variants.
Reply with a single JSON object and nothing else:
  {"match":true,"id":"<variant id>"}
  {"match":false,"reply":"<short clarifying question>"}`

func productDetailsPhase() Phase {
	return Phase{
		Intro: "Tell me about the product you want to package.",
		Questions: []Question{
			{
				ID:     "product_description",
				Prompt: "What is your product? Describe it briefly (e.g. handmade soap, roasted coffee beans).",
			},
			{
				ID:       "product_dimensions",
				Prompt:   "What are the product's dimensions? Please include numbers, e.g. 20x15x10 cm.",
				Validate: RequireDigit("I need actual measurements with numbers, e.g. 20x15x10 cm. Could you measure your product?"),
			},
			{
				ID:       "monthly_volume",
				Prompt:   "Roughly how many units do you ship per month?",
				Validate: RequireDigit("A rough number is enough, e.g. 500. How many units per month?"),
			},
			{
				ID:      "fragile",
				Prompt:  "Is the product fragile?",
				Options: []string{"yes", "no"},
				Default: "no",
			},
		},
	}
}

func packageSpecsPhase() Phase {
	return Phase{
		Intro: "A few details about the packaging itself.",
		Questions: []Question{
			{
				ID:      "material",
				Prompt:  "Which material do you prefer?",
				Options: []string{"kraft", "corrugated", "rigid", "recycled"},
			},
			{
				ID:       "print_finish",
				Prompt:   "Which print finishes would you like? You can pick several, separated by commas.",
				Options:  []string{"matte", "glossy", "foil", "embossed", "none"},
				Multiple: true,
				Validate: RequireOption([]string{"matte", "glossy", "foil", "embossed", "none"}, true,
					"Please choose from: matte, glossy, foil, embossed or none (comma-separated for several)."),
			},
			{
				ID:       "quantity",
				Prompt:   "How many units should the order cover?",
				Validate: RequirePositiveInt("Please give a whole number of units, e.g. 500."),
			},
		},
	}
}

func fulfillmentSpecsPhase() Phase {
	return Phase{
		Intro: "Almost done — delivery details.",
		Questions: []Question{
			{
				ID:     "delivery_city",
				Prompt: "Which city should we deliver to?",
			},
			{
				ID:     "delivery_window",
				Prompt: "When do you need the order? A date or a rough window is fine.",
			},
			{
				ID:       "contact_phone",
				Prompt:   "What phone number can we reach you on for delivery coordination?",
				Validate: RequirePhone("That doesn't look like a phone number. Digits only please, e.g. +966 50 123 4567."),
			},
		},
	}
}

func launchKitPhase() Phase {
	return Phase{
		Intro: "Now let's put together your launch kit.",
		Questions: []Question{
			{
				ID:     "brand_name",
				Prompt: "What is the brand name we should design around?",
			},
			{
				ID:      "logo_ready",
				Prompt:  "Do you already have a logo?",
				Options: []string{"yes", "no"},
			},
			{
				ID:       "kit_components",
				Prompt:   "Which launch-kit components do you want? Pick any, comma-separated.",
				Options:  []string{"stickers", "thank-you cards", "tissue paper", "tape", "inserts"},
				Multiple: true,
				Validate: RequireOption([]string{"stickers", "thank-you cards", "tissue paper", "tape", "inserts"}, true,
					"Please choose from: stickers, thank-you cards, tissue paper, tape or inserts."),
			},
		},
	}
}

func baseDiscovery(prompt string) DiscoveryRules {
	return DiscoveryRules{
		SystemPrompt:  discoverySystemPrompt,
		Prompt:        prompt,
		FallbackReply: "I couldn't find anything matching that in our catalog. Try broader terms, e.g. \"mailer box\" or \"pouch\".",
		ContextKeys:   []string{"product_description", "product_dimensions", "fragile"},
		StripPrefixes: []string{"[TEST]", "[DRAFT]", "[INTERNAL]"},
	}
}

func baseVariant() VariantRules {
	return VariantRules{
		SystemPrompt: variantSystemPrompt,
		Reprompt:     "Which size or option would you like? You can answer with the name or the number from the list.",
	}
}

// DirectSales sells one package with product context and delivery details.
func DirectSales() Charter {
	return Charter{
		Meta:    Meta{Flow: domain.FlowDirectSales, Title: "Direct sales", Version: 3},
		Welcome: "Welcome! I'll help you order packaging for your product.",
		Chain: []domain.Step{
			domain.StepStart,
			domain.StepProductDetails,
			domain.StepSelectPackage,
			domain.StepSelectVariant,
			domain.StepFulfillmentSpecs,
			domain.StepDraftOrder,
		},
		Discovery: baseDiscovery("What kind of packaging are you looking for?"),
		Variant:   baseVariant(),
		Phases: map[domain.Step]Phase{
			domain.StepProductDetails:   productDetailsPhase(),
			domain.StepFulfillmentSpecs: fulfillmentSpecsPhase(),
		},
	}
}

// PackageOrder is the short reorder flow: discovery, variant, specs, order.
func PackageOrder() Charter {
	return Charter{
		Meta:    Meta{Flow: domain.FlowPackageOrder, Title: "Package ordering", Version: 2},
		Welcome: "Welcome back! Which package would you like to order?",
		Chain: []domain.Step{
			domain.StepStart,
			domain.StepSelectPackage,
			domain.StepSelectVariant,
			domain.StepPackageSpecs,
			domain.StepDraftOrder,
		},
		Discovery: baseDiscovery("Which package would you like? Describe it or paste a previous order name."),
		Variant:   baseVariant(),
		Phases: map[domain.Step]Phase{
			domain.StepPackageSpecs: packageSpecsPhase(),
		},
	}
}

// BrandLaunch is the richest flow: full consultation, launch kit, order.
func BrandLaunch() Charter {
	return Charter{
		Meta:    Meta{Flow: domain.FlowBrandLaunch, Title: "Brand launch", Version: 4},
		Welcome: "Exciting! Let's get your brand launch ready, packaging and all.",
		Chain: []domain.Step{
			domain.StepStart,
			domain.StepProductDetails,
			domain.StepSelectPackage,
			domain.StepSelectVariant,
			domain.StepPackageSpecs,
			domain.StepFulfillmentSpecs,
			domain.StepLaunchKit,
			domain.StepDraftOrder,
		},
		Discovery: baseDiscovery("Based on your product, what style of packaging do you have in mind?"),
		Variant:   baseVariant(),
		Phases: map[domain.Step]Phase{
			domain.StepProductDetails:   productDetailsPhase(),
			domain.StepPackageSpecs:     packageSpecsPhase(),
			domain.StepFulfillmentSpecs: fulfillmentSpecsPhase(),
			domain.StepLaunchKit:        launchKitPhase(),
		},
	}
}

// Consultation guides an undecided customer from product description to a
// concrete package.
func Consultation() Charter {
	return Charter{
		Meta:    Meta{Flow: domain.FlowConsultation, Title: "Packaging consultation", Version: 2},
		Welcome: "Happy to advise. Let's start with your product and find the right packaging.",
		Chain: []domain.Step{
			domain.StepStart,
			domain.StepProductDetails,
			domain.StepSelectPackage,
			domain.StepSelectVariant,
			domain.StepDraftOrder,
		},
		Discovery: baseDiscovery("Given what you told me, describe the packaging you imagine — or say \"suggest something\"."),
		Variant:   baseVariant(),
		Phases: map[domain.Step]Phase{
			domain.StepProductDetails: productDetailsPhase(),
		},
	}
}
