package kafka

import (
	"math"
	"testing"
)

type searchEvent struct {
	Query string `json:"query"`
	Hits  int    `json:"hits"`
}

func TestEncodeAndDecode(t *testing.T) {
	msgs, err := encode([]Event{{Key: "q1", Value: searchEvent{Query: "storm", Hits: 3}}})
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || string(msgs[0].Key) != "q1" {
		t.Fatalf("messages = %+v", msgs)
	}
	got, err := DecodeJSON[searchEvent](msgs[0].Value)
	if err != nil {
		t.Fatal(err)
	}
	if got.Query != "storm" || got.Hits != 3 {
		t.Errorf("decoded %+v", got)
	}
}

func TestEncodeRejectsUnencodableValues(t *testing.T) {
	if _, err := encode([]Event{{Key: "bad", Value: math.NaN()}}); err == nil {
		t.Error("expected an error for NaN")
	}
}

func TestDecodeJSONInvalid(t *testing.T) {
	if _, err := DecodeJSON[searchEvent]([]byte("{")); err == nil {
		t.Error("expected a decode error")
	}
}
