/**
 * @description
 * Static command catalog the gateway renders for the help and command-list
 * replies. The service owns the catalog so the bot's help text stays in sync
 * with the operations that actually exist.
 */

package api

import "net/http"

// CommandInfo describes one chat command for help rendering.
type CommandInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	AdminOnly   bool   `json:"admin_only"`
}

var commandCatalog = []CommandInfo{
	{
		Name:        "add-addy",
		Description: "Add or replace a crypto slot (address + type).",
		Usage:       "/add-addy slot_num:1",
	},
	{
		Name:        "add-upi",
		Description: "Add or replace a UPI slot.",
		Usage:       "/add-upi slot_num:2",
	},
	{
		Name:        "manage-slot",
		Description: "Update or delete your saved slot.",
		Usage:       "/manage-slot action:delete slot_type:crypto slot_num:1",
	},
	{
		Name:        "receiving-method",
		Description: "Show the saved slot, then send the plain address/UPI.",
		Usage:       "/receiving-method slot_type:crypto slot_num:1",
	},
	{
		Name:        "i2c",
		Description: "Convert INR to USD.",
		Usage:       "/i2c amount:500",
	},
	{
		Name:        "c2i",
		Description: "Convert USD to INR.",
		Usage:       "/c2i amount:50",
	},
	{
		Name:        "setrate",
		Description: "Change conversion rates.",
		Usage:       "/setrate rate_type:i2c new_rate:96",
		AdminOnly:   true,
	},
	{
		Name:        "deal-done",
		Description: "Open a settlement confirmation for a user's completed exchange.",
		Usage:       "/deal-done user:@name amount:50 type:c2i",
		AdminOnly:   true,
	},
	{
		Name:        "ledger",
		Description: "Show a user's lifetime settlement totals.",
		Usage:       "/ledger user:@name",
	},
}

// CommandsHandler returns the command catalog.
func (h *ExchangeHandlers) CommandsHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"commands": commandCatalog})
}
