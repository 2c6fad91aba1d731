package ofx

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBankOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DIRECTDEP
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>2500.00
<FITID>2024011501
<NAME>DIRECT DEP ACME CORP PAYROLL
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>-125.00
<FITID>2024012001
<NAME>Whole Foods Market
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240122120000[0:GMT]
<TRNAMT>300.00
<FITID>2024012201
<NAME>ACH CREDIT CLIENT CO
</STMTTRN>
<STMTTRN>
<TRNTYPE>INT
<DTPOSTED>20240131120000[0:GMT]
<TRNAMT>1.23
<FITID>2024013101
<NAME>INTEREST
<MEMO>Interest paid
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

const sampleCreditCardOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>USD
<CCACCTFROM>
<ACCTID>4111111111111111
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240110120000[0:GMT]
<TRNAMT>-45.99
<FITID>CC2024011001
<NAME>AMAZON.COM*RT4Y7HG2
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>15.00
<FITID>CC2024011501
<NAME>REFUND NETFLIX.COM
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-500.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

func TestParseFile(t *testing.T) {
	tests := []struct {
		name          string
		ofxData       string
		expectedCount int
		expectedError bool
	}{
		{name: "bank statement credits only", ofxData: sampleBankOFX, expectedCount: 3},
		{name: "credit card statement", ofxData: sampleCreditCardOFX, expectedCount: 1},
		{name: "invalid OFX data", ofxData: "not valid OFX", expectedError: true},
		{name: "empty OFX", ofxData: "", expectedError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := NewParser("Other")

			candidates, err := parser.ParseFile(context.Background(), strings.NewReader(tt.ofxData))

			if tt.expectedError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, candidates, tt.expectedCount)
		})
	}
}

func TestParseBankCredits(t *testing.T) {
	parser := NewParser("Other")

	candidates, err := parser.ParseFile(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	payroll := candidates[0]
	assert.Equal(t, "2024011501", payroll.FITID)
	assert.Equal(t, "1234567890", payroll.Account)
	assert.Equal(t, "DIRECTDEP", payroll.Type)
	assert.Equal(t, "Salary", payroll.Tag)
	assert.Equal(t, "ACME CORP PAYROLL", payroll.Payer)
	assert.True(t, payroll.Amount.Equal(decimal.NewFromInt(2500)), payroll.Amount.String())
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), payroll.Date)

	credit := candidates[1]
	assert.Equal(t, "Other", credit.Tag)
	assert.Equal(t, "CLIENT CO", credit.Payer)

	interest := candidates[2]
	assert.Equal(t, "Dividends", interest.Tag)
	assert.Equal(t, "Interest paid", interest.Payer, "generic NAME falls back to MEMO")
	assert.True(t, interest.Amount.Equal(decimal.RequireFromString("1.23")), interest.Amount.String())
}

func TestParseFile_CustomTypeTags(t *testing.T) {
	parser := NewParser("Gift").WithTypeTags(map[string]string{"CREDIT": "Freelance"})

	candidates, err := parser.ParseFile(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	assert.Equal(t, "Gift", candidates[0].Tag)
	assert.Equal(t, "Freelance", candidates[1].Tag)
}

func TestParseCreditCardCredits(t *testing.T) {
	parser := NewParser("Other")

	candidates, err := parser.ParseFile(context.Background(), strings.NewReader(sampleCreditCardOFX))
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	assert.Equal(t, "CC2024011501", candidates[0].FITID)
	assert.Equal(t, "4111111111111111", candidates[0].Account)
	assert.True(t, candidates[0].Amount.Equal(decimal.NewFromInt(15)))
}

func TestExtractPayerName(t *testing.T) {
	parser := NewParser("Other")

	tests := []struct {
		name     string
		input    string
		memo     string
		expected string
	}{
		{name: "remove ACH prefix", input: "ACH CREDIT STRIPE TRANSFER", expected: "STRIPE TRANSFER"},
		{name: "remove direct deposit prefix", input: "Direct Deposit Acme", expected: "Acme"},
		{name: "keep clean name", input: "EMPLOYER INC", expected: "EMPLOYER INC"},
		{name: "trim whitespace", input: "  BROKERAGE  ", expected: "BROKERAGE"},
		{name: "generic name uses memo", input: "DEPOSIT", memo: "Check from Grandma", expected: "Check from Grandma"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := ofxgo.Transaction{
				Name: ofxgo.String(tt.input),
				Memo: ofxgo.String(tt.memo),
			}
			assert.Equal(t, tt.expected, parser.extractPayerName(tx))
		})
	}
}

func TestDedupe(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	a := Candidate{Account: "1", FITID: "X1", Amount: decimal.NewFromInt(10), Date: day}
	b := Candidate{Account: "1", FITID: "X2", Amount: decimal.NewFromInt(10), Date: day}
	sameFITIDOtherAccount := Candidate{Account: "2", FITID: "X1", Amount: decimal.NewFromInt(10), Date: day}
	noFITID := Candidate{Account: "1", Amount: decimal.NewFromInt(5), Date: day, Payer: "ACME"}

	got := Dedupe([]Candidate{a, b, a, sameFITIDOtherAccount, noFITID, noFITID})

	assert.Equal(t, []Candidate{a, b, sameFITIDOtherAccount, noFITID}, got)
}

func TestGetAccounts(t *testing.T) {
	parser := NewParser("Other")

	accounts, err := parser.GetAccounts(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	assert.Equal(t, []string{"1234567890"}, accounts)

	accounts, err = parser.GetAccounts(context.Background(), strings.NewReader(sampleCreditCardOFX))
	require.NoError(t, err)
	assert.Equal(t, []string{"4111111111111111"}, accounts)
}
