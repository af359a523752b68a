package catalog

import "github.com/hyperengineering/voices/internal/types"

// Default returns the built-in catalog. The result always passes Validate.
func Default() Catalog {
	return Catalog{
		Patterns:   defaultPatterns(),
		Categories: defaultCategories(),
		Blends:     defaultBlends(),
	}
}

// MustDefault returns the validated built-in catalog.
func MustDefault() *Catalog {
	c, err := New(Default())
	if err != nil {
		panic("built-in catalog is invalid: " + err.Error())
	}
	return c
}

func defaultPatterns() []PatternSpec {
	return []PatternSpec{
		{
			Type:        types.PatternTimelineReality,
			Name:        "Timeline Reality",
			Description: "A dated account of what actually happened, week by week or month by month, including the parts that did not go to plan.",
			MinWords:    150,
			MaxWords:    300,
			Sections: []string{
				"Starting point with a concrete date or day count",
				"Two or three time markers (Week 2, Month 3) with what changed",
				"A setback or plateau and how long it lasted",
				"Where things stand today, still imperfect",
			},
			RequiredElements: []string{"time markers", "specific numbers", "a setback", "ongoing imperfection"},
			ExamplePhrases: []string{
				"Week 1 I barely slept.",
				"Around day 40 I hit a wall and everything stalled for two weeks.",
				"I'm 5 months in now and still have rough mornings.",
			},
		},
		{
			Type:        types.PatternMindsetShift,
			Name:        "Mindset Shift",
			Description: "The belief the writer held before, the moment or period it cracked, and how they think about it now.",
			MinWords:    120,
			MaxWords:    250,
			Sections: []string{
				"The old belief, stated honestly",
				"The specific moment or conversation that challenged it",
				"The messy middle where both beliefs coexisted",
				"The current view, with a caveat",
			},
			RequiredElements: []string{"before belief", "turning point", "admission of struggle", "peer disclaimer"},
			ExamplePhrases: []string{
				"I genuinely thought asking for help meant I'd failed.",
				"It was a throwaway comment from my sister that stuck.",
				"I still catch myself thinking the old way some days.",
			},
		},
		{
			Type:        types.PatternLessonsLearned,
			Name:        "Lessons Learned",
			Description: "A short list of things the writer wishes they had known, each anchored in something that went wrong.",
			MinWords:    150,
			MaxWords:    280,
			Sections: []string{
				"One line of context: who I am and how long I've been at this",
				"Three or four lessons, each tied to a specific mistake",
				"What each lesson cost in time or money",
				"A closing disclaimer that this is one person's experience",
			},
			RequiredElements: []string{"specific mistakes", "costs or trade-offs", "peer disclaimer"},
			ExamplePhrases: []string{
				"I wasted about $300 on supplements before anyone told me to get bloodwork.",
				"Lesson two came the hard way.",
				"This is just what worked for me, everyone's different.",
			},
		},
		{
			Type:        types.PatternJourneyNarrative,
			Name:        "Journey Narrative",
			Description: "A first-person story with a beginning, a low point and an unfinished present, told the way someone would tell a friend.",
			MinWords:    200,
			MaxWords:    350,
			Sections: []string{
				"Where I was when it started, with one unglamorous detail",
				"The low point, described plainly",
				"What slowly changed and roughly how long it took",
				"Where I am now, including what I'm still working on",
			},
			RequiredElements: []string{"unglamorous details", "emotional honesty", "non-linear progress", "ongoing imperfection"},
			ExamplePhrases: []string{
				"I was eating cereal for dinner standing over the sink most nights.",
				"Things got worse before they got better.",
				"I'm still working on the sleep part.",
			},
		},
		{
			Type:        types.PatternPracticalTips,
			Name:        "Practical Tips",
			Description: "Concrete, low-cost things that helped, framed as personal experience rather than advice.",
			MinWords:    120,
			MaxWords:    250,
			Sections: []string{
				"Why I'm sharing and how long I've been doing this",
				"Three to five specific things, each with a cost or time investment",
				"One thing that did not work for me",
				"A disclaimer that it might not work for everyone",
			},
			RequiredElements: []string{"specific products or tools", "costs", "time investment", "peer disclaimer"},
			ExamplePhrases: []string{
				"A $12 sunrise alarm clock did more than any app.",
				"It takes me about 20 minutes every morning.",
				"YMMV, but this is what finally stuck for me.",
			},
		},
	}
}

func defaultCategories() map[types.TopicCategory]CategoryPlan {
	return map[types.TopicCategory]CategoryPlan{
		types.CategoryMentalHealth: {
			Weights: map[types.PatternType]float64{
				types.PatternTimelineReality:  0.30,
				types.PatternMindsetShift:     0.20,
				types.PatternLessonsLearned:   0.15,
				types.PatternJourneyNarrative: 0.20,
				types.PatternPracticalTips:    0.15,
			},
			Primary:   []types.PatternType{types.PatternTimelineReality, types.PatternJourneyNarrative, types.PatternMindsetShift},
			Secondary: []types.PatternType{types.PatternLessonsLearned},
		},
		types.CategoryAddictionRecovery: {
			Weights: map[types.PatternType]float64{
				types.PatternTimelineReality:  0.35,
				types.PatternMindsetShift:     0.15,
				types.PatternLessonsLearned:   0.20,
				types.PatternJourneyNarrative: 0.20,
				types.PatternPracticalTips:    0.10,
			},
			Primary:   []types.PatternType{types.PatternTimelineReality, types.PatternJourneyNarrative, types.PatternLessonsLearned},
			Secondary: []types.PatternType{types.PatternMindsetShift},
		},
		types.CategoryChronicIllness: {
			Weights: map[types.PatternType]float64{
				types.PatternTimelineReality:  0.20,
				types.PatternMindsetShift:     0.10,
				types.PatternLessonsLearned:   0.20,
				types.PatternJourneyNarrative: 0.15,
				types.PatternPracticalTips:    0.35,
			},
			Primary:   []types.PatternType{types.PatternPracticalTips, types.PatternTimelineReality, types.PatternLessonsLearned},
			Secondary: []types.PatternType{types.PatternJourneyNarrative},
		},
		types.CategoryFitness: {
			Weights: map[types.PatternType]float64{
				types.PatternTimelineReality:  0.30,
				types.PatternMindsetShift:     0.10,
				types.PatternLessonsLearned:   0.15,
				types.PatternJourneyNarrative: 0.15,
				types.PatternPracticalTips:    0.30,
			},
			Primary: []types.PatternType{types.PatternTimelineReality, types.PatternPracticalTips},
		},
		types.CategoryLifeTransition: {
			Weights: map[types.PatternType]float64{
				types.PatternTimelineReality:  0.15,
				types.PatternMindsetShift:     0.30,
				types.PatternLessonsLearned:   0.25,
				types.PatternJourneyNarrative: 0.20,
				types.PatternPracticalTips:    0.10,
			},
			Primary:   []types.PatternType{types.PatternMindsetShift, types.PatternLessonsLearned, types.PatternJourneyNarrative},
			Secondary: []types.PatternType{types.PatternTimelineReality},
		},
	}
}

func defaultBlends() []BlendStrategy {
	return []BlendStrategy{
		{
			Patterns: [2]types.PatternType{types.PatternTimelineReality, types.PatternLessonsLearned},
			Strategy: "tell the timeline in order and surface each lesson at the point in time it was learned",
		},
		{
			Patterns: [2]types.PatternType{types.PatternTimelineReality, types.PatternJourneyNarrative},
			Strategy: "narrate the journey with explicit time markers anchoring each stage",
		},
		{
			Patterns: [2]types.PatternType{types.PatternMindsetShift, types.PatternJourneyNarrative},
			Strategy: "let the change in belief be the turning point of the story",
		},
		{
			Patterns: [2]types.PatternType{types.PatternLessonsLearned, types.PatternPracticalTips},
			Strategy: "pair every practical tip with the mistake that taught it",
		},
		{
			Patterns: [2]types.PatternType{types.PatternTimelineReality, types.PatternPracticalTips},
			Strategy: "introduce each tip at the week or month it was adopted and say how long it took to stick",
		},
		{
			Patterns: [2]types.PatternType{types.PatternMindsetShift, types.PatternLessonsLearned},
			Strategy: "frame the lessons as the evidence that changed the old belief",
		},
	}
}
