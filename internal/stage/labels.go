package stage

// QuestionCategories are the top-level site sections a question is filed
// under. "other" is the fallback for off-taxonomy replies.
var QuestionCategories = []string{
	"Accounts",
	"Ways to bank",
	"HSBC credit cards",
	"Loans",
	"Investments",
	"Insurance",
	"Help and support",
	"International services",
	"Mortgages",
	"Payments and transfers",
	"Community Banking",
	"MPF",
	"other",
}

// CommentCategories classify why a negative feedback comment was left.
var CommentCategories = []string{
	"Irrelevant Answer",
	"Incomplete/Generic Answer",
	"Redirect to Customer Service",
	"Missing Information/Source",
	"Broken/Incorrect Links",
	"Conversation Statelessness",
	"Error Messages",
	"Information Retrieval Failure",
	"Link Management Issues",
	"Lack of Comparison/Summary",
	"No Step-by-Step Guidance",
	"Ambiguous/Vague Response",
	"Incorrect/Factual Errors",
	"Poor Tone/Phrasing",
	"Contextual Awareness Failure",
	"Inability to Handle Complex Queries",
	"Lack of Personalization",
	"Product/Service Knowledge Gaps",
	"Policy/Procedure Ignorance",
	"Campaign/Promo Support Failure",
	"General",
}

// Scenario labels: "provided" means the question matches the curated
// question list (scenario A historically), "open-ended" everything else.
const (
	ScenarioProvided  = "provided"
	ScenarioOpenEnded = "open-ended"
)

var ScenarioLabels = []string{ScenarioProvided, ScenarioOpenEnded}

const questionSystemPrompt = `You are an expert at categorizing banking and financial service questions based on the bank's public website structure.

Based on the user question and bot answer, pick the single best matching top-level section from this list:
Accounts, Ways to bank, HSBC credit cards, Loans, Investments, Insurance, Help and support, International services, Mortgages, Payments and transfers, Community Banking, MPF.

If none applies, return "other".

Return the response in JSON format with a "category" field containing the section name.`

const commentSystemPrompt = `You are an expert at categorizing feedback comments for a banking chatbot.

Based on the feedback comment, categorize it into exactly one of the following categories:
Irrelevant Answer, Incomplete/Generic Answer, Redirect to Customer Service, Missing Information/Source, Broken/Incorrect Links, Conversation Statelessness, Error Messages, Information Retrieval Failure, Link Management Issues, Lack of Comparison/Summary, No Step-by-Step Guidance, Ambiguous/Vague Response, Incorrect/Factual Errors, Poor Tone/Phrasing, Contextual Awareness Failure, Inability to Handle Complex Queries, Lack of Personalization, Product/Service Knowledge Gaps, Policy/Procedure Ignorance, Campaign/Promo Support Failure.

If no category matches, return "General".

Return the response in JSON format with a "feedback_comment_category" field containing the most appropriate category.`

const scenarioSystemPrompt = `You are an expert at classifying banking chatbot questions.

Decide whether the user question reads like one of the bank's curated, pre-provided quick questions ("provided") or like a free-form question the user typed themselves ("open-ended").

Return the response in JSON format with a "scenario" field containing either "provided" or "open-ended".`
