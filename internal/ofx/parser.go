// Package ofx reads OFX/QFX statements and turns incoming credits into gain candidates.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/gaintrack/internal/model"
	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// Opening tags at end of line with no closing bracket.
	tagFixRegex = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// DefaultTypeTags maps OFX transaction types to catalog categories.
var DefaultTypeTags = map[string]string{
	"DIRECTDEP": "Salary",
	"INT":       "Dividends",
	"DIV":       "Dividends",
}

// Candidate is a credit found in a statement, ready to be recorded as a gain.
type Candidate struct {
	Date    time.Time
	Amount  decimal.Decimal
	Tag     string
	Payer   string
	FITID   string
	Account string
	Type    string
}

// Key identifies a candidate across overlapping statement downloads.
func (c Candidate) Key() string {
	if c.FITID != "" {
		return c.Account + "/" + c.FITID
	}
	return fmt.Sprintf("%s/%s/%s/%s", c.Account, c.Date.Format(model.DateLayout), c.Amount, c.Payer)
}

// Parser implements OFX/QFX file parsing.
type Parser struct {
	typeTags   map[string]string
	defaultTag string
}

// NewParser creates a parser that tags credits by transaction type, falling back
// to defaultTag.
func NewParser(defaultTag string) *Parser {
	return &Parser{
		typeTags:   DefaultTypeTags,
		defaultTag: defaultTag,
	}
}

// WithTypeTags replaces the transaction type mapping.
func (p *Parser) WithTypeTags(tags map[string]string) *Parser {
	p.typeTags = tags
	return p
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)
	return tagFixRegex.ReplaceAllString(content, "$1>")
}

func (p *Parser) parse(reader io.Reader) (*ofxgo.Response, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}
	return resp, nil
}

// ParseFile parses an OFX/QFX file and returns its credits in statement order.
// Debits are skipped.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]Candidate, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	var candidates []Candidate
	var bankStmts, ccStmts, skipped int

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			bankStmts++
			if stmt.BankTranList == nil {
				continue
			}
			c, s := p.collect(stmt.BankTranList.Transactions, string(stmt.BankAcctFrom.AcctID))
			candidates = append(candidates, c...)
			skipped += s
		}
	}

	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			ccStmts++
			if stmt.BankTranList == nil {
				continue
			}
			c, s := p.collect(stmt.BankTranList.Transactions, string(stmt.CCAcctFrom.AcctID))
			candidates = append(candidates, c...)
			skipped += s
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slog.Debug("parsed OFX file",
		"credits", len(candidates),
		"debits_skipped", skipped,
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return candidates, nil
}

func (p *Parser) collect(txns []ofxgo.Transaction, accountID string) ([]Candidate, int) {
	var candidates []Candidate
	skipped := 0
	for _, tx := range txns {
		c, ok := p.convertTransaction(tx, accountID)
		if !ok {
			skipped++
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates, skipped
}

// convertTransaction turns a positive OFX amount into a candidate. OFX signs
// debits negative.
func (p *Parser) convertTransaction(tx ofxgo.Transaction, accountID string) (Candidate, bool) {
	amount := decimal.NewFromBigRat(&tx.TrnAmt.Rat, 4)
	if !amount.IsPositive() {
		return Candidate{}, false
	}

	trnType := tx.TrnType.String()
	return Candidate{
		Date:    model.Day(tx.DtPosted.Time),
		Amount:  amount,
		Tag:     p.tagFor(trnType),
		Payer:   p.extractPayerName(tx),
		FITID:   string(tx.FiTID),
		Account: accountID,
		Type:    trnType,
	}, true
}

func (p *Parser) tagFor(trnType string) string {
	if tag, ok := p.typeTags[trnType]; ok {
		return tag
	}
	return p.defaultTag
}

// extractPayerName tries to get a clean payer name from OFX data.
func (p *Parser) extractPayerName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	name := string(tx.Name)
	if tx.Memo != "" && isGenericDescription(name) {
		name = string(tx.Memo)
	}
	name = strings.TrimSpace(name)

	prefixes := []string{
		"ACH CREDIT ",
		"DIRECT DEPOSIT ",
		"DIRECT DEP ",
		"MOBILE DEPOSIT ",
		"ONLINE TRANSFER FROM ",
		"DEPOSIT ",
	}
	upper := strings.ToUpper(name)
	for _, prefix := range prefixes {
		if strings.HasPrefix(upper, prefix) {
			name = strings.TrimSpace(name[len(prefix):])
			break
		}
	}

	return name
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "CREDIT", "DEPOSIT", "DIRECT DEPOSIT", "TRANSFER", "INTEREST":
		return true
	}
	return false
}

// Dedupe drops candidates whose Key was already seen, keeping the first.
func Dedupe(candidates []Candidate) []Candidate {
	seen := make(map[string]bool, len(candidates))
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		k := c.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, c)
	}
	return out
}

// GetAccounts extracts the sorted, unique account IDs from the OFX file.
func (p *Parser) GetAccounts(_ context.Context, reader io.Reader) ([]string, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	accountMap := make(map[string]bool)
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankAcctFrom.AcctID != "" {
			accountMap[string(stmt.BankAcctFrom.AcctID)] = true
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.CCAcctFrom.AcctID != "" {
			accountMap[string(stmt.CCAcctFrom.AcctID)] = true
		}
	}

	accounts := make([]string, 0, len(accountMap))
	for acct := range accountMap {
		accounts = append(accounts, acct)
	}
	sort.Strings(accounts)
	return accounts, nil
}
