package mailer

import (
	"fmt"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"soko_back_end/internal/config"
	"soko_back_end/internal/models"
)

// Mailer envoie les e-mails transactionnels de la couche de données :
// vérification d'adresse, réinitialisation de mot de passe, confirmation
// de commande.
type Mailer struct {
	cfg config.SMTPConfig
	log *zap.SugaredLogger
}

func New(cfg config.SMTPConfig, log *zap.SugaredLogger) *Mailer {
	return &Mailer{cfg: cfg, log: log}
}

func (m *Mailer) send(to, subject, htmlBody string) error {
	msg := mail.NewMsg()

	if err := msg.From(m.cfg.From); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	m.log.Infof("📤 Envoi de l'e-mail à %s (%s)", to, subject)
	return client.DialAndSend(msg)
}

// SendVerification envoie le jeton de vérification d'adresse e-mail.
func (m *Mailer) SendVerification(to, token string) error {
	body := fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<body style="font-family: Arial, sans-serif; padding: 20px;">
	<div style="max-width: 600px; margin: auto;">
		<h2>Bienvenue sur Soko !</h2>
		<p>Voici votre code de vérification :</p>
		<p style="font-size: 20px; font-weight: bold; letter-spacing: 2px;">%s</p>
		<p>Si vous n'êtes pas à l'origine de cette inscription, ignorez cet e-mail.</p>
	</div>
</body>
</html>`, token)
	return m.send(to, "Vérifiez votre adresse e-mail", body)
}

// SendPasswordReset envoie le jeton de réinitialisation de mot de passe.
func (m *Mailer) SendPasswordReset(to, token string) error {
	body := fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<body style="font-family: Arial, sans-serif; padding: 20px;">
	<div style="max-width: 600px; margin: auto;">
		<h2>Réinitialisation de votre mot de passe</h2>
		<p>Voici votre code de réinitialisation (valable 1 heure) :</p>
		<p style="font-size: 20px; font-weight: bold; letter-spacing: 2px;">%s</p>
		<p>Si vous n'avez pas demandé ce changement, ignorez cet e-mail.</p>
	</div>
</body>
</html>`, token)
	return m.send(to, "Réinitialisation de votre mot de passe", body)
}

// SendOrderConfirmation envoie le récapitulatif de commande.
func (m *Mailer) SendOrderConfirmation(to string, order models.Order) error {
	itemsHTML := ""
	for _, item := range order.Items {
		itemsHTML += fmt.Sprintf(`
			<tr>
				<td>%s</td>
				<td>%d</td>
				<td>%.2f</td>
				<td>%.2f</td>
			</tr>`, item.Name, item.Quantity, item.Price, item.Price*float64(item.Quantity))
	}

	body := fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Confirmation de votre commande %s</h2>
		<p>Bonjour,</p>
		<p>Merci pour votre commande ! En voici le récapitulatif :</p>
		<table width="100%%" cellpadding="6" style="border-collapse: collapse;">
			<tr style="text-align: left; border-bottom: 1px solid #ddd;">
				<th>Produit</th><th>Qté</th><th>Prix</th><th>Total</th>
			</tr>
			%s
		</table>
		<p style="margin-top: 16px;">
			Sous-total : %.2f<br>
			TVA : %.2f<br>
			Livraison : %.2f<br>
			<strong>Total : %.2f</strong>
		</p>
	</div>
</body>
</html>`, order.Number, itemsHTML, order.Pricing.Subtotal, order.Pricing.Tax, order.Pricing.Shipping, order.Pricing.Total)

	return m.send(to, "Confirmation de commande "+order.Number, body)
}
