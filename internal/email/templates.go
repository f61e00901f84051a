// internal/email/templates.go
package email

var templateBodies = map[string]string{
	"welcome": `<html><body>
<p>Hola {{.FullName}},</p>
<p>Tu cuenta de <b>{{.OrgName}}</b> en Omni ERP ya está lista.</p>
<p><a href="{{.LoginLink}}">Iniciar sesión</a></p>
</body></html>`,

	"setup_incomplete": `<html><body>
<p>Hola {{.FullName}},</p>
<p>La configuración inicial de <b>{{.OrgName}}</b> no pudo completarse.
Vuelve a intentarlo iniciando sesión; la operación es segura de repetir.</p>
</body></html>`,
}
