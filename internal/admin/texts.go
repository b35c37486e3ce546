package admin

const (
	panelText     = "🛠 Admin panel\nThe bot is %s."
	cancelledText = "✖️ Cancelled."
	toggledText   = "The bot is now %s."
	usageText     = "Usage:\n/admin\n/admin ban <user_id>\n/admin unban <user_id>"

	addYearPrompt   = "✏️ Send the name of the new year."
	addTermPrompt   = "✏️ Send the name of the new term for %s."
	addCoursePrompt = "✏️ Send the name of the new course for %s."
	addFilePrompt   = "📎 Send the document for %s. Its caption becomes the display name."
	banPrompt       = "🚫 Send the numeric id of the user to ban."
	unbanPrompt     = "✅ Send the numeric id of the user to unban."

	pickYearForTermText          = "📅 Choose the year for the new term:"
	pickTermForCourseText        = "📖 Choose the term for the new course:"
	pickCourseForFileText        = "📎 Choose the course for the new file:"
	pickYearToRemoveText         = "🗑 Choose the year to remove:"
	pickTermToRemoveText         = "🗑 Choose the term to remove:"
	pickCourseToRemoveText       = "🗑 Choose the course to remove:"
	pickCourseForFileRemovalText = "🗑 Choose the course whose file you want to remove:"
	pickFileToRemoveText         = "🗑 Choose the file to remove:"

	needYearText        = "📭 Add a year first."
	needTermText        = "📭 Add a term first."
	needCourseText      = "📭 Add a course first."
	nothingToRemoveText = "📭 Nothing to remove."
	noFilesText         = "📭 This course has no files."

	addedText       = "✅ %s \"%s\" added."
	removedText     = "🗑 %s \"%s\" removed."
	bannedText      = "🚫 User %d is banned."
	unbannedText    = "✅ User %d is unbanned."
	hasChildrenText = "⚠️ \"%s\" still has %s. Remove them first."

	goneText             = "⚠️ That entry no longer exists."
	duplicateText        = "⚠️ That name is already taken here. Send a different name or press Cancel."
	invalidNameText      = "⚠️ Names must be 1 to 64 characters. Send the name again or press Cancel."
	invalidUserIDText    = "⚠️ That is not a numeric user id. Send the id again or press Cancel."
	operatorBanText      = "⚠️ Operators cannot be banned."
	documentExpectedText = "📎 Please send a document, or press Cancel."
	failedText           = "❌ Operation failed, try again."
)
