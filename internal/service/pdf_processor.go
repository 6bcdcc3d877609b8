package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/hlmartins/invoice-agent-be/pkg/logger"
)

type PDFProcessorInterface interface {
	Validate(pdfBytes []byte) bool
	ExtractText(ctx context.Context, pdfBytes []byte, filename string) (text string, institution string, err error)
}

// PDFProcessor extracts the text layer of an invoice PDF, detects which
// institution issued it and strips boilerplate so the model prompt stays
// focused on transaction data.
type PDFProcessor struct {
	logger *logger.Logger
}

func NewPDFProcessor(log *logger.Logger) *PDFProcessor {
	return &PDFProcessor{logger: log}
}

var pdfHeader = []byte("%PDF-")

func (p *PDFProcessor) Validate(pdfBytes []byte) bool {
	if !bytes.HasPrefix(pdfBytes, pdfHeader) {
		return false
	}

	reader, err := pdf.NewReader(bytes.NewReader(pdfBytes), int64(len(pdfBytes)))
	if err != nil {
		return false
	}

	return reader.NumPage() > 0
}

func (p *PDFProcessor) ExtractText(ctx context.Context, pdfBytes []byte, filename string) (string, string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(pdfBytes), int64(len(pdfBytes)))
	if err != nil {
		return "", "", fmt.Errorf("open pdf %s: %w", filename, err)
	}

	plainText, err := reader.GetPlainText()
	if err != nil {
		return "", "", fmt.Errorf("extract text from %s: %w", filename, err)
	}

	raw, err := io.ReadAll(plainText)
	if err != nil {
		return "", "", fmt.Errorf("read text from %s: %w", filename, err)
	}

	text := string(raw)
	p.logger.Debug(ctx, "Raw text extracted",
		"filename", filename,
		"characters", len(text),
	)

	institution := DetectInstitution(text)
	cleaned := cleanText(text, institution)

	p.logger.Info(ctx, "PDF text processed",
		"filename", filename,
		"institution", institution,
		"characters", len(cleaned),
	)

	return cleaned, institution, nil
}

// DetectInstitution matches issuer-specific markers in the extracted text.
// The CAIXA CNPJ shows up on statements that never spell the bank name out.
func DetectInstitution(text string) string {
	upper := strings.ToUpper(text)

	switch {
	case containsAny(upper, "CARTÕES CAIXA", "CAIXA ECONOMICA", "CAIXA ECONÔMICA", "00.360.305/0001-04"):
		return "CAIXA"
	case containsAny(upper, "NUBANK", "NU PAGAMENTOS"):
		return "NUBANK"
	case containsAny(upper, "BANCO DO BRASIL", "BB.COM.BR", "001-9"):
		return "BANCO DO BRASIL"
	case containsAny(upper, "BRADESCO", "BRADESCARD"):
		return "BRADESCO"
	case containsAny(upper, "ITAU", "ITAÚ", "CREDICARD"):
		return "ITAU"
	default:
		return "GENERIC"
	}
}

func containsAny(text string, patterns ...string) bool {
	for _, pattern := range patterns {
		if strings.Contains(text, pattern) {
			return true
		}
	}
	return false
}

type institutionConfig struct {
	preserveSections []string
	removePatterns   []*regexp.Regexp
	keyFields        []string
}

var institutionConfigs = map[string]institutionConfig{
	"CAIXA": {
		preserveSections: []string{"DEMONSTRATIVO", "COMPRAS", "COMPRAS PARCELADAS", "COMPRAS INTERNACIONAIS"},
		removePatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^SAC CAIXA:.*`),
			regexp.MustCompile(`(?i)^0800.*`),
			regexp.MustCompile(`(?i).*direitos.*reservados.*`),
		},
		keyFields: []string{"VENCIMENTO", "VALOR TOTAL", "DATA", "DESCRIÇÃO"},
	},
	"NUBANK": {
		preserveSections: []string{"RESUMO DA FATURA", "TRANSAÇÕES", "COMPRAS"},
		removePatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^Para.*dúvidas.*`),
			regexp.MustCompile(`(?i)^www\.nubank.*`),
		},
		keyFields: []string{"DATA", "DESCRIÇÃO", "VALOR"},
	},
	"GENERIC": {
		removePatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^SAC.*`),
			regexp.MustCompile(`(?i)^www\..*`),
		},
		keyFields: []string{"DATA", "DESCRIÇÃO", "VALOR"},
	},
}

var (
	shortDatePattern  = regexp.MustCompile(`\d{2}/\d{2}`)
	amountPattern     = regexp.MustCompile(`R?\$?\s*\d+[,.]\d{2}`)
	caixaValuePattern = regexp.MustCompile(`\d+[,.]\d{2}`)

	genericNoisePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^[.\-_\s•▪▫○●]+$`),
		regexp.MustCompile(`^\d{1,2}$`),
		regexp.MustCompile(`^página\s*\d*$`),
		regexp.MustCompile(`^©.*`),
		regexp.MustCompile(`^®.*`),
		regexp.MustCompile(`.*copyright.*`),
	}
)

func cleanText(text, institution string) string {
	config, ok := institutionConfigs[institution]
	if !ok {
		config = institutionConfigs["GENERIC"]
	}

	var cleaned []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < 2 {
			continue
		}

		if isSectionHeader(line, config.preserveSections) ||
			isTransactionLine(line, institution) ||
			containsKeyField(line, config.keyFields) {
			cleaned = append(cleaned, line)
			continue
		}

		if isNoiseLine(line, config.removePatterns) {
			continue
		}

		cleaned = append(cleaned, line)
	}

	return strings.Join(cleaned, "\n")
}

func isSectionHeader(line string, preserveSections []string) bool {
	upper := strings.ToUpper(line)
	for _, section := range preserveSections {
		if strings.Contains(upper, section) {
			return true
		}
	}
	return false
}

func isTransactionLine(line, institution string) bool {
	if institution == "CAIXA" {
		tail := line
		if len(tail) > 5 {
			tail = tail[len(tail)-5:]
		}
		return shortDatePattern.MatchString(line) &&
			(strings.Contains(tail, "D") || strings.Contains(tail, "C")) &&
			caixaValuePattern.MatchString(line)
	}

	return shortDatePattern.MatchString(line) && amountPattern.MatchString(line)
}

func containsKeyField(line string, keyFields []string) bool {
	upper := strings.ToUpper(line)
	for _, field := range keyFields {
		if strings.Contains(upper, field) {
			return true
		}
	}
	return false
}

func isNoiseLine(line string, removePatterns []*regexp.Regexp) bool {
	for _, pattern := range removePatterns {
		if pattern.MatchString(line) {
			return true
		}
	}

	lower := strings.ToLower(strings.TrimSpace(line))
	for _, pattern := range genericNoisePatterns {
		if pattern.MatchString(lower) {
			return true
		}
	}

	return len(strings.ReplaceAll(line, " ", "")) < 3
}
