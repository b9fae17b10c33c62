package waypoint

// LogMaskVal replaces sensitive values before they are logged.
const LogMaskVal = "xxxxxx"
