package dataset

import "github.com/stoik/email-fraud-classifier/internal/domain"

// DemoCorpus returns the fixed 20-example demonstration corpus used when no
// dataset is available. 13 examples are fraudulent, 7 legitimate.
func DemoCorpus() domain.Corpus {
	return domain.Corpus{
		{Text: "Congratulations! You've won a $1000 gift card. Click here to claim your prize now!", Label: domain.LabelFraudulent},
		{Text: "Your account has been compromised. Please verify your identity by providing your login details.", Label: domain.LabelFraudulent},
		{Text: "Hi John, just checking in about our meeting tomorrow at 10 AM. Please confirm if that works for you.", Label: domain.LabelLegitimate},
		{Text: "URGENT: Your bank account has been suspended. Please update your information immediately to avoid closure.", Label: domain.LabelFraudulent},
		{Text: "Hi mom, can you send me the recipe for your famous chocolate cake? Thanks!", Label: domain.LabelLegitimate},
		{Text: "You've been selected for a limited-time offer! Get a free iPhone just by completing our survey.", Label: domain.LabelFraudulent},
		{Text: "Meeting reminder: Project review today at 3 PM in conference room B.", Label: domain.LabelLegitimate},
		{Text: "Your package delivery failed. Please confirm your shipping address to reschedule delivery.", Label: domain.LabelFraudulent},
		{Text: "Hi team, don't forget about the company picnic this Saturday. Looking forward to seeing everyone there!", Label: domain.LabelLegitimate},
		{Text: "Your Netflix account has been put on hold. Please update your payment information to continue service.", Label: domain.LabelFraudulent},
		{Text: "FREE offer! Claim your $500 Walmart gift card today only! Click now!", Label: domain.LabelFraudulent},
		{Text: "Important: Your Amazon account has been locked. Verify your information to restore access.", Label: domain.LabelFraudulent},
		{Text: "Hi David, could you please send me the quarterly reports when you get a chance?", Label: domain.LabelLegitimate},
		{Text: "Warning: Your social security number has been compromised. Contact us immediately.", Label: domain.LabelFraudulent},
		{Text: "You have inherited $1,000,000 from a distant relative. Provide your bank details to claim.", Label: domain.LabelFraudulent},
		{Text: "Reminder: Dentist appointment tomorrow at 3 PM. Please arrive 10 minutes early.", Label: domain.LabelLegitimate},
		{Text: "Your PayPal account has unusual activity. Confirm your identity to secure your account.", Label: domain.LabelFraudulent},
		{Text: "Hi Sarah, looking forward to our lunch meeting next Tuesday at 12:30.", Label: domain.LabelLegitimate},
		{Text: "You've been pre-approved for a $50,000 loan with 0% interest. Apply now!", Label: domain.LabelFraudulent},
		{Text: "Your Microsoft Windows license is about to expire. Renew now to avoid disruption.", Label: domain.LabelFraudulent},
	}
}
