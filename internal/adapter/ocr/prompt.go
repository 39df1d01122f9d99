package ocr

// Prompt asks the vision model for a plain transcription of a receipt.
const Prompt = `The image is a screenshot of a payment receipt or a bank or UPI app confirmation.
Transcribe all visible text exactly as it appears, top to bottom, as Markdown.
Keep numbers, dates, reference and transaction IDs, currency symbols and labels verbatim.
Do not summarize, translate or add commentary. Output only the transcription.`
