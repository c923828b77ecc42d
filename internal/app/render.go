package app

import (
	"bytes"
	"fmt"
	"html/template"

	"gymos/internal/domain"
)

var planTemplate = template.Must(template.New("plan").Parse(`<h3>Today's Fuel Plan</h3>
<table class="table">
  <thead>
    <tr><th>Meal</th><th>Items</th><th>Energy</th></tr>
  </thead>
  <tbody>
{{- range .Meals}}
    <tr><td class="meal-name">{{.Name}}</td><td>{{.Items}}</td><td>{{.Calories}} cal</td></tr>
{{- end}}
  </tbody>
</table>
<div class="total-summary">
  <div><strong>{{.TotalCalories}}</strong><span>CALORIES</span></div>
  <div><strong>{{.TotalProtein}}g</strong><span>PROTEIN</span></div>
</div>
<div class="trainer-note"><strong>TRAINER'S INTEL:</strong> {{.Note}}</div>
`))

// RenderPlan totals the meals and renders them with the coach note into the
// persisted plan content.
func RenderPlan(meals []domain.Meal, note string, source domain.PlanSource) (domain.Plan, error) {
	p := domain.Plan{
		Note:   note,
		Meals:  append([]domain.Meal(nil), meals...),
		Source: source,
	}
	for _, m := range meals {
		p.TotalCalories += m.Calories
		p.TotalProtein += m.Protein
	}

	var buf bytes.Buffer
	if err := planTemplate.Execute(&buf, p); err != nil {
		return domain.Plan{}, fmt.Errorf("render plan: %w", err)
	}
	p.HTML = buf.String()
	return p, nil
}

// fallbackMeals is the canned plan used whenever the completion service
// cannot produce one.
var fallbackMeals = []domain.Meal{
	{Name: "Breakfast", Items: "3 Idlis + Sambar", Calories: 300, Protein: 8},
	{Name: "Lunch", Items: "Curd Rice + Dal + Salad", Calories: 450, Protein: 14},
	{Name: "Snack", Items: "Roasted Chana + Buttermilk", Calories: 150, Protein: 7},
	{Name: "Dinner", Items: "2 Chapati + Paneer Bhurji", Calories: 400, Protein: 18},
}

const fallbackNote = "Great consistency! Keep showing up, stay hydrated and hit your protein today."

// FallbackPlan returns the rendered canned plan.
func FallbackPlan() domain.Plan {
	p, err := RenderPlan(fallbackMeals, fallbackNote, domain.PlanSourceFallback)
	if err != nil {
		panic(err)
	}
	return p
}
