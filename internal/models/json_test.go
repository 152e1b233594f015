package models

import (
	"testing"
)

func TestJSONScanAndValue(t *testing.T) {
	var empty JSON
	if v, err := empty.Value(); err != nil || v != nil {
		t.Fatalf("empty payload should store NULL, got %v %v", v, err)
	}

	payload := JSONFromStrings(map[string]string{"vnp_BankTranNo": "VNP14226112", "vnp_ResponseCode": "00"})
	v, err := payload.Value()
	if err != nil {
		t.Fatalf("value failed: %v", err)
	}

	for _, raw := range []interface{}{v, []byte(v.(string))} {
		var scanned JSON
		if err := scanned.Scan(raw); err != nil {
			t.Fatalf("scan %T failed: %v", raw, err)
		}
		if scanned["vnp_BankTranNo"] != "VNP14226112" {
			t.Fatalf("unexpected scanned payload: %v", scanned)
		}
	}

	var scanned JSON
	if err := scanned.Scan(nil); err != nil || scanned == nil || len(scanned) != 0 {
		t.Fatalf("NULL should scan to empty map, got %v %v", scanned, err)
	}
	if err := scanned.Scan(42); err == nil {
		t.Fatalf("unsupported type should fail")
	}
	if err := scanned.Scan("{"); err == nil {
		t.Fatalf("malformed JSON should fail")
	}
}
