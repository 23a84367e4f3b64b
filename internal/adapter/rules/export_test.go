package rules

var NewEngine = newEngine
