package services

// previewParty is one of the From / Quotation For blocks of the preview.
type previewParty struct {
	Heading string
	Name    string
	Details []string
}

func previewParties(c QuoteConfig) []previewParty {
	return []previewParty{
		{
			Heading: "From",
			Name:    orDefault(c.SenderName, "Default Sender"),
			Details: compact(append([]string{c.SenderPhone, c.SenderEmail}, splitLines(c.SenderAddress)...)),
		},
		{
			Heading: "Quotation For",
			Name:    orDefault(c.RecipientName, "Client"),
			Details: compact(append([]string{c.RecipientContact}, splitLines(c.RecipientAddress)...)),
		},
	}
}

func jobLines(c QuoteConfig) []string {
	return splitLines(c.JobDescription)
}
