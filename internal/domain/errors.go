package domain

import "errors"

var (
	ErrInvoiceNotFound     = errors.New("invoice not found")
	ErrInvalidPDF          = errors.New("invalid PDF file")
	ErrNoTextContent       = errors.New("no text content found in PDF")
	ErrFileTooLarge        = errors.New("file too large")
	ErrUnknownProvider     = errors.New("unknown provider")
	ErrEmptyModelResponse  = errors.New("empty response from model")
	ErrInvalidModelJSON    = errors.New("invalid JSON response from model")
	ErrTransactionNotFound = errors.New("transaction index out of range")
)
