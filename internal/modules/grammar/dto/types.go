package dto

type ValidateInput struct {
	Sentence string
}

type ValidateOutput struct {
	Result   string
	Accepted bool
	Form     string
}
