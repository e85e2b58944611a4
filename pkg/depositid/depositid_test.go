package depositid

import "testing"

const sampleTxHash = "0x1234567890abcdef1234567890abcdef1234567890abcdef1234567890abcdef"

func TestDeriveIsDeterministic(t *testing.T) {
	a, err := Derive(sampleTxHash, 0, FamilyEVM)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Derive(sampleTxHash, 0, FamilyEVM)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != b {
		t.Fatalf("Derive is not deterministic: %s != %s", a, b)
	}
}

func TestDeriveDiffersByFamily(t *testing.T) {
	evm, err := Derive(sampleTxHash, 1, FamilyEVM)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stark, err := Derive(sampleTxHash, 1, FamilyStarkNet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evm == stark {
		t.Fatalf("expected EVM and StarkNet derivations to differ due to byte reversal")
	}
}

func TestDeriveDiffersByOutputIndex(t *testing.T) {
	a, _ := Derive(sampleTxHash, 0, FamilyEVM)
	b, _ := Derive(sampleTxHash, 1, FamilyEVM)
	if a == b {
		t.Fatalf("expected different output indices to produce different IDs")
	}
}

func TestDeriveBoundaryOutputIndex(t *testing.T) {
	if _, err := Derive(sampleTxHash, 0, FamilyEVM); err != nil {
		t.Fatalf("index 0 should succeed: %v", err)
	}
	if _, err := Derive(sampleTxHash, MaxOutputIndex, FamilyEVM); err != nil {
		t.Fatalf("index 0xFFFFFFFF should succeed: %v", err)
	}
	if _, err := Derive(sampleTxHash, MaxOutputIndex+1, FamilyEVM); err == nil {
		t.Fatalf("index 2^32 should fail validation")
	}
}

func TestDeriveRejectsMalformedHash(t *testing.T) {
	cases := []string{
		"",
		"1234",
		"0xzz34567890abcdef1234567890abcdef1234567890abcdef1234567890abcd",
		"0x1234567890abcdef1234567890abcdef1234567890abcdef1234567890ab", // too short
	}
	for _, c := range cases {
		if _, err := Derive(c, 0, FamilyEVM); err == nil {
			t.Errorf("expected error for malformed hash %q", c)
		}
	}
}
