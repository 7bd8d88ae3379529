package domain

import (
	"encoding/json"
	"testing"
)

func TestParseARN(t *testing.T) {
	tests := []struct {
		name    string
		arn     string
		want    ARN
		wantErr bool
	}{
		{
			name: "iam user",
			arn:  "arn:aws:iam::123456789012:user/alice",
			want: ARN{Partition: "aws", Service: "iam", AccountID: "123456789012", ResourceType: "user", ResourceID: "alice"},
		},
		{
			name: "role with path",
			arn:  "arn:aws:iam::123456789012:role/service/deploy-role",
			want: ARN{Partition: "aws", Service: "iam", AccountID: "123456789012", ResourceType: "role", ResourceID: "service/deploy-role"},
		},
		{
			name: "assumed role session",
			arn:  "arn:aws:sts::123456789012:assumed-role/deploy-role/session-1",
			want: ARN{Partition: "aws", Service: "sts", AccountID: "123456789012", ResourceType: "assumed-role", ResourceID: "deploy-role/session-1"},
		},
		{
			name: "colon separated resource",
			arn:  "arn:aws:lambda:us-east-1:123456789012:function:my-fn",
			want: ARN{Partition: "aws", Service: "lambda", Region: "us-east-1", AccountID: "123456789012", ResourceType: "function", ResourceID: "my-fn"},
		},
		{
			name:    "not an arn",
			arn:     "123456789012",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseARN(tt.arn)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseARN(%q) expected error, got %+v", tt.arn, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseARN(%q) unexpected error: %v", tt.arn, err)
			}
			if got != tt.want {
				t.Errorf("ParseARN(%q) = %+v, want %+v", tt.arn, got, tt.want)
			}
		})
	}
}

func TestPrincipalFromARN(t *testing.T) {
	tests := []struct {
		name string
		arn  string
		want Principal
	}{
		{
			name: "user",
			arn:  "arn:aws:iam::123456789012:user/alice",
			want: Principal{ARN: "arn:aws:iam::123456789012:user/alice", Kind: PrincipalKindUser, Name: "alice", AccountID: "123456789012"},
		},
		{
			name: "user with path",
			arn:  "arn:aws:iam::123456789012:user/engineering/alice",
			want: Principal{ARN: "arn:aws:iam::123456789012:user/engineering/alice", Kind: PrincipalKindUser, Name: "alice", AccountID: "123456789012"},
		},
		{
			name: "role",
			arn:  "arn:aws:iam::123456789012:role/deploy-role",
			want: Principal{ARN: "arn:aws:iam::123456789012:role/deploy-role", Kind: PrincipalKindRole, Name: "deploy-role", AccountID: "123456789012"},
		},
		{
			name: "assumed role maps to underlying role",
			arn:  "arn:aws:sts::123456789012:assumed-role/deploy-role/ci-session",
			want: Principal{ARN: "arn:aws:iam::123456789012:role/deploy-role", Kind: PrincipalKindRole, Name: "deploy-role", AccountID: "123456789012"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PrincipalFromARN(tt.arn)
			if err != nil {
				t.Fatalf("PrincipalFromARN(%q) unexpected error: %v", tt.arn, err)
			}
			if got != tt.want {
				t.Errorf("PrincipalFromARN(%q) = %+v, want %+v", tt.arn, got, tt.want)
			}
		})
	}

	if _, err := PrincipalFromARN("arn:aws:s3:::my-bucket"); err == nil {
		t.Error("expected error for non-principal ARN")
	}
}

func TestStatementListUnmarshal(t *testing.T) {
	var doc PolicyDocument
	single := `{"Version":"2012-10-17","Statement":{"Effect":"Allow","Action":"iam:CreateUser","Resource":"*"}}`
	if err := json.Unmarshal([]byte(single), &doc); err != nil {
		t.Fatalf("single statement form: %v", err)
	}
	if len(doc.Statement) != 1 || doc.Statement[0].Effect != "Allow" {
		t.Errorf("single statement form parsed as %+v", doc.Statement)
	}

	array := `{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Action":["s3:GetObject","s3:ListBucket"],"Resource":"*"},{"Effect":"Deny","Action":"*","Resource":"*"}]}`
	if err := json.Unmarshal([]byte(array), &doc); err != nil {
		t.Fatalf("array statement form: %v", err)
	}
	if len(doc.Statement) != 2 {
		t.Fatalf("array statement form: got %d statements", len(doc.Statement))
	}
	if got := doc.Statement[0].Actions(); len(got) != 2 || got[0] != "s3:GetObject" {
		t.Errorf("Actions() = %v", got)
	}
}

func TestNormalizeToList(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  int
	}{
		{"string", "s3:GetObject", 1},
		{"string slice", []string{"a", "b"}, 2},
		{"interface slice", []interface{}{"a", "b", "c"}, 3},
		{"interface slice with junk", []interface{}{"a", 42}, 1},
		{"nil", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeToList(tt.value); len(got) != tt.want {
				t.Errorf("NormalizeToList(%v) = %v, want %d entries", tt.value, got, tt.want)
			}
		})
	}
}
