package session

import (
	"regexp"

	"github.com/nyaruka/phonenumbers"
)

var emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// detectContact scans a user turn for an email address and a phone
// number. Contact details are stored on the lead record directly and
// never enter the extraction pipeline.
func detectContact(utterance, defaultRegion string) (email, phone string) {
	email = emailRe.FindString(utterance)

	raw := phoneCandidateRe.FindString(utterance)
	if raw == "" {
		return email, ""
	}
	num, err := phonenumbers.Parse(raw, defaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return email, ""
	}
	return email, phonenumbers.Format(num, phonenumbers.E164)
}

// phoneCandidateRe matches digit runs long enough to plausibly be a
// phone number; validation happens in the parser.
var phoneCandidateRe = regexp.MustCompile(`\+?[\d][\d\s().\-]{7,}\d`)
