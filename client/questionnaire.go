package client

// Question is one questionnaire item.
type Question struct {
	ID          int    `json:"id"`
	Text        string `json:"text"`
	Description string `json:"description,omitempty"`
}

// ResponseOption is one point on the answer scale.
type ResponseOption struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

const questionPrompt = "Over the last 2 weeks, how often have you been bothered by this?"

// Questions are the nine screening items, in model weight order.
var Questions = []Question{
	{ID: 1, Text: "Little interest or pleasure in doing things", Description: questionPrompt},
	{ID: 2, Text: "Feeling down, depressed, or hopeless", Description: questionPrompt},
	{ID: 3, Text: "Trouble falling or staying asleep, or sleeping too much", Description: questionPrompt},
	{ID: 4, Text: "Feeling tired or having little energy", Description: questionPrompt},
	{ID: 5, Text: "Poor appetite or overeating", Description: questionPrompt},
	{ID: 6, Text: "Feeling bad about yourself or that you are a failure", Description: questionPrompt},
	{ID: 7, Text: "Trouble concentrating on things, such as reading or watching TV", Description: questionPrompt},
	{ID: 8, Text: "Moving or speaking slowly, or being fidgety or restless", Description: questionPrompt},
	{ID: 9, Text: "Thoughts that you would be better off dead or hurting yourself", Description: questionPrompt},
}

// ResponseOptions is the 1-5 answer scale.
var ResponseOptions = []ResponseOption{
	{Value: 1, Label: "Not at all"},
	{Value: 2, Label: "Several days"},
	{Value: 3, Label: "More than half the days"},
	{Value: 4, Label: "Nearly every day"},
	{Value: 5, Label: "Every day"},
}
