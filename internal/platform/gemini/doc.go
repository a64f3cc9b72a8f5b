// Package gemini implements verification.Recognizer on top of Google's
// Gemini API.
//
// The image is sent inline with a short instruction asking the model to
// transcribe the handwritten or printed word exactly as it appears. The
// model's text reply is returned unmodified; trimming and comparison are the
// caller's business.
//
// Responses are checked the same way for every call:
//   - a nil response or one without candidates is ErrInvalidResponse
//   - a candidate stopped by safety filters is ErrContentBlocked
//   - the text parts of the first candidate are concatenated
//
// The package talks to the API through the google.golang.org/genai client
// and never retries; a failed call is reported to the caller as is.
package gemini
