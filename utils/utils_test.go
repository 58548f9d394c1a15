package utils

import "testing"

func TestJoinCodeRoundTrip(t *testing.T) {
	hash, err := HashJoinCode("sekrit42")
	if err != nil {
		t.Fatal(err)
	}
	if hash == "sekrit42" {
		t.Fatal("join code stored in clear text")
	}
	if !CheckJoinCode("sekrit42", hash) {
		t.Error("correct code rejected")
	}
	if CheckJoinCode("wrong", hash) {
		t.Error("wrong code accepted")
	}
}
