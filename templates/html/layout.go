package templates

import (
	"fmt"
	"html"
)

// renderLayout wraps an already escaped htmlBody in the branded e-mail layout
func renderLayout(subject, htmlBody string) string {
	safeSubject := html.EscapeString(subject)

	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>%s</title>
  <style type="text/css">
    body { font-family: Georgia, 'Times New Roman', serif; margin: 0; padding: 0; background-color: #f4f1ea; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; }
    .header { background-color: #1f2a44; padding: 32px 30px; text-align: center; }
    .header h1 { color: #f4f1ea; margin: 0; font-size: 22px; font-weight: 700; }
    .content { padding: 36px 30px; color: #1f2933; line-height: 1.6; font-size: 15px; }
    .button { display: inline-block; margin-top: 16px; padding: 12px 24px; background-color: #b08d57; color: #ffffff; text-decoration: none; border-radius: 4px; }
    .footer { padding: 24px 30px; text-align: center; color: #6b7280; font-size: 12px; border-top: 1px solid #e5e1d8; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>%s</h1>
    </div>
    <div class="content">
      %s
    </div>
    <div class="footer">
      <p>You are receiving this because you take part in a case on Legal Case Desk.</p>
    </div>
  </div>
</body>
</html>`, safeSubject, safeSubject, htmlBody)
}
