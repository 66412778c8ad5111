package portfolioweb

// Version of the portfolio server, printed by the version command.
const Version = "0.1.0"
