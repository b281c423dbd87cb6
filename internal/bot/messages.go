package bot

const (
	msgNotAuthorized = "You are not authorized to use this bot. Please contact admin."
	msgNotAdmin      = "You are not authorized to manage users."

	msgWelcome = "Welcome! I can help you check IMEI numbers.\n\n" +
		"You can send me an IMEI in any of these formats:\n" +
		"• Just the number: 357369092971157\n" +
		"• With IMEI prefix: IMEI: 357369092971157\n" +
		"• With spaces or other separators: 35736-90929-71157\n\n" +
		"I'll clean up the format and check it for you!"

	msgHelp = "📱 *IMEI Check Bot Help*\n\n" +
		"*Commands:*\n" +
		"/start - Start the bot\n" +
		"/help - Show this help message\n\n" +
		"*IMEI Format:*\n" +
		"• IMEI should be 15 digits\n" +
		"• You can include spaces or separators\n" +
		"• You can use prefixes like 'IMEI:'\n\n" +
		"*Examples of valid input:*\n" +
		"357369092971157\n" +
		"IMEI: 357369092971157\n" +
		"35736-90929-71157\n" +
		"IMEI number: 357369092971157\n\n" +
		"*Note:* I'll clean up the format automatically!"

	msgAddUserPrompt    = "Please send the Telegram user ID you want to authorize."
	msgDelUserPrompt    = "Send the user ID to remove."
	msgNoUsers          = "No authorized users found."
	msgInvalidUserID    = "Invalid user ID. Please send a valid number."
	msgUserAuthorized   = "User %d has been authorized."
	msgUserRemoved      = "User %d has been removed from authorized users."
	msgDatabaseError    = "Database error: %v"
	msgNoNumbers        = "I couldn't find any numbers in your message.\nPlease send me an IMEI number.\nUse /help to see example formats."
	msgProcessing       = "🔍 Processing your request...\nPlease wait."
	msgTokenError       = "Error: Could not get authorization token."
	msgLookupError      = "Error: %v"
	msgGenericError     = "An error occurred: %v"
	msgCurrentUsersHead = "Current authorized users:"
)
