package gemini

// SummarySystemInstruction steers the model toward a compact digest of the
// collected chat backlog. The user prompt carries the formatted messages,
// grouped per chat.
const SummarySystemInstruction = `You are an assistant that summarizes chat messages. ` +
	`You will receive messages collected from several Telegram chats and channels, grouped by chat. ` +
	`Produce a concise digest of the key topics, announcements, and decisions. ` +
	`Keep the per-chat grouping in your summary, skip greetings and small talk, ` +
	`and answer in the language the messages are written in.`
