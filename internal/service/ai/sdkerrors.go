package ai

import (
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	goopenai "github.com/meguminnnnnnnnn/go-openai"
	"github.com/tidwall/gjson"
	"google.golang.org/genai"
)

// AsProviderError finds a provider HTTP status in err. Besides ProviderError
// itself it understands the error types of the openai, claude and gemini
// drivers.
func AsProviderError(err error) (*ProviderError, bool) {
	if err == nil {
		return nil, false
	}
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr, true
	}

	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return &ProviderError{StatusCode: apiErr.HTTPStatusCode, Detail: apiErr.Message}, true
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		body := string(reqErr.Body)
		detail := errorDetail(body)
		if detail == "" && reqErr.Err != nil {
			detail = reqErr.Err.Error()
		}
		return &ProviderError{StatusCode: reqErr.HTTPStatusCode, Detail: detail, Body: body}, true
	}

	var claudeErr *anthropic.Error
	if errors.As(err, &claudeErr) && claudeErr.StatusCode > 0 {
		body := claudeErr.RawJSON()
		detail := errorDetail(body)
		if msg := gjson.Get(body, "error.message"); msg.Type == gjson.String {
			detail = msg.String()
		}
		return &ProviderError{StatusCode: claudeErr.StatusCode, Detail: detail, Body: body}, true
	}

	var geminiErr genai.APIError
	if errors.As(err, &geminiErr) && geminiErr.Code > 0 {
		return &ProviderError{StatusCode: geminiErr.Code, Detail: geminiErr.Message}, true
	}
	return nil, false
}
