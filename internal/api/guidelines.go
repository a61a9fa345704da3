package api

// Guideline is a static self-care and warning-sign card served to clients so
// guidance stays available while an alert is in flight.
type Guideline struct {
	Symptom      string   `json:"symptom"`
	WarningSigns []string `json:"warning_signs"`
	Advice       []string `json:"advice"`
	CallNowIf    []string `json:"call_now_if"`
}

var emergencyGuidelines = []Guideline{
	{
		Symptom: "bleeding",
		WarningSigns: []string{
			"Soaking a pad in under an hour",
			"Passing clots larger than a grape",
			"Bleeding with severe abdominal pain",
		},
		Advice: []string{
			"Lie down on your left side",
			"Do not insert anything vaginally",
			"Track the amount and color of bleeding",
		},
		CallNowIf: []string{
			"Bleeding is heavy or bright red",
			"You feel faint or dizzy",
		},
	},
	{
		Symptom: "contractions",
		WarningSigns: []string{
			"Regular contractions before 37 weeks",
			"Contractions closer than 5 minutes apart",
		},
		Advice: []string{
			"Time contractions from start to start",
			"Drink water and rest on your side",
		},
		CallNowIf: []string{
			"Your water breaks",
			"Contractions are strong and regular before term",
		},
	},
	{
		Symptom: "headache",
		WarningSigns: []string{
			"Severe headache that does not respond to rest",
			"Headache with vision changes or swelling",
		},
		Advice: []string{
			"Rest in a quiet dark room",
			"Check your blood pressure if you have a monitor",
		},
		CallNowIf: []string{
			"You see spots or flashing lights",
			"Your face or hands swell suddenly",
		},
	},
	{
		Symptom: "fever",
		WarningSigns: []string{
			"Temperature above 38C for more than a day",
			"Fever with chills or abdominal pain",
		},
		Advice: []string{
			"Stay hydrated and rest",
			"Take your temperature every few hours",
		},
		CallNowIf: []string{
			"Temperature goes above 39C",
			"Fever comes with reduced fetal movement",
		},
	},
	{
		Symptom: "dizziness",
		WarningSigns: []string{
			"Fainting or near-fainting",
			"Dizziness with palpitations or blurred vision",
		},
		Advice: []string{
			"Sit or lie down immediately",
			"Eat something and drink water",
		},
		CallNowIf: []string{
			"You lose consciousness",
			"Dizziness does not pass after resting",
		},
	},
}
