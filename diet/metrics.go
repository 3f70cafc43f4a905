// Package diet computes adherence statistics over a user's meals.
package diet

import (
	"slices"

	"daily-diet/models"
)

// Summary is the adherence report for one user.
type Summary struct {
	AmountMeals        int `json:"amountMeals"`
	AmountMealsInDiet  int `json:"amountMealsInDiet"`
	AmountMealsOutDiet int `json:"amountMealsOutDiet"`
	BestInDietStreak   int `json:"betterSequence"`
}

// Summarize counts meals and finds the longest run of consecutive in-diet
// meals ordered by date. Meals sharing a date keep their input order. The
// input slice is not modified.
func Summarize(meals []models.Meal) Summary {
	ordered := slices.Clone(meals)
	slices.SortStableFunc(ordered, func(a, b models.Meal) int {
		return a.Date.Compare(b.Date)
	})

	var s Summary
	current := 0
	for _, m := range ordered {
		s.AmountMeals++
		if !m.IsInDiet {
			current = 0
			continue
		}
		s.AmountMealsInDiet++
		current++
		s.BestInDietStreak = max(s.BestInDietStreak, current)
	}
	s.AmountMealsOutDiet = s.AmountMeals - s.AmountMealsInDiet
	return s
}
