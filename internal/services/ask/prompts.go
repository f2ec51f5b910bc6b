package ask

// documentSystemPrompt instructs the model for single-document Q&A,
// where the full document text is the context.
const documentSystemPrompt = `You are a helpful assistant. Answer the question using only the provided document text. If the document does not contain the answer, say so clearly.`

// corpusSystemPrompt instructs the model for cross-collection Q&A,
// where many documents are concatenated into one context. The length
// cap keeps aggregate answers readable.
const corpusSystemPrompt = `You are a helpful study assistant. Answer the question using only the provided study material. Keep your answer to 2-4 lines. If the material does not contain the answer, say so clearly.`
