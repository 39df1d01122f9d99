package extractor

import "strings"

const systemPrompt = `You extract structured payment data from receipt text. Answer with a single JSON object and nothing else.`

const userPromptTemplate = `Extract payment information from the following text that was obtained from a screenshot of a payment receipt.

Text from screenshot:
{ocr_text}

Extract the following information:
1. Transaction ID/Reference Number
2. Date of transaction
3. Amount paid
4. Payment app/method used (e.g., Google Pay, PhonePe, bank transfer, NEFT, Net Banking, RTGS, IMPS)

The response should be valid JSON with these exact keys:
- transaction_id: The transaction ID or reference number
- date: The date of the payment
- amount: The amount paid (numeric value without currency symbol)
- payment_method: The payment app or method used

Use an empty string for any field that is not present in the text.`

func userPrompt(ocrText string) string {
	return strings.Replace(userPromptTemplate, "{ocr_text}", ocrText, 1)
}
