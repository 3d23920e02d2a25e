// Package transport adapts Twilio-style webhooks to dispatcher events and
// renders channel markup responses. No provider SDK; the markup surface we
// need is four verbs.
package transport

import (
	"bytes"
	"encoding/xml"
)

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

type twimlGather struct {
	XMLName xml.Name  `xml:"Gather"`
	Input   string    `xml:"input,attr"`
	Action  string    `xml:"action,attr,omitempty"`
	Timeout int       `xml:"speechTimeout,attr,omitempty"`
	Say     *twimlSay `xml:"Say,omitempty"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

type twimlMessage struct {
	XMLName xml.Name `xml:"Message"`
	Text    string   `xml:",chardata"`
}

// RenderVoice wraps the reply as spoken output. While the conversation stays
// open the Say is nested in a Gather so the caller's next utterance posts
// back; on escalation or goodbye the call speaks and hangs up.
func RenderVoice(replyText, actionURL string, endCall bool) (string, error) {
	var r twimlResponse
	if endCall {
		r.Verbs = append(r.Verbs, twimlSay{Text: replyText}, twimlHangup{})
	} else {
		r.Verbs = append(r.Verbs, twimlGather{
			Input:   "speech",
			Action:  actionURL,
			Timeout: 3,
			Say:     &twimlSay{Text: replyText},
		})
	}
	return encodeTwiML(r)
}

// RenderSMS wraps the reply as an outbound text message.
func RenderSMS(replyText string) (string, error) {
	var r twimlResponse
	r.Verbs = append(r.Verbs, twimlMessage{Text: replyText})
	return encodeTwiML(r)
}

func encodeTwiML(r twimlResponse) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
