package models

// Principal - идентичность, установленная для одного HTTP-запроса по
// валидному access-токену. Живёт только в контексте запроса.
type Principal struct {
	AccountID int64
	Roles     []Role
}

// HasRole проверяет наличие роли у принципала.
func (p *Principal) HasRole(r Role) bool {
	if p == nil {
		return false
	}

	return HasRole(p.Roles, r)
}
