package rod

import "github.com/go-rod/rod/lib/proto"

var IsJSON = isJSON

// ObserveResponses feeds events through a fresh response log and returns
// the main document status and captured JSON response URLs.
func ObserveResponses(events ...*proto.NetworkResponseReceived) (int, []string) {
	rec := &responseLog{}
	for _, e := range events {
		rec.observe(e)
	}
	status, responses := rec.snapshot()
	urls := make([]string, len(responses))
	for i, r := range responses {
		urls[i] = r.url
	}
	return status, urls
}
