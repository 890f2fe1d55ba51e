package notification

import (
	"fmt"
	"html"
)

const (
	KindEnrollment  = "ENROLLMENT"
	KindCertificate = "CERTIFICATE"
	KindReview      = "COURSE_REVIEW"
	KindSale        = "COURSE_SALE"
)

// Message is a rendered email.
type Message struct {
	Subject string
	HTML    string
}

// Templates renders the transactional emails. BaseURL is the frontend used for links.
type Templates struct {
	AppName string
	BaseURL string
}

func (t Templates) wrap(title, body string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F4F6FB; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; }
			.header { background-color: #1B2A4A; padding: 28px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 22px; letter-spacing: 1px; }
			.content { padding: 36px 30px; color: #1B2A4A; line-height: 1.6; }
			.footer { background-color: #F4F6FB; padding: 18px; text-align: center; font-size: 12px; color: #666666; }
			.btn { display: inline-block; padding: 12px 24px; background-color: #3A7BD5; color: #FFFFFF; text-decoration: none; border-radius: 4px; font-weight: bold; margin-top: 16px; }
			.info-box { background: #E8F0FE; padding: 14px; border-radius: 4px; border-left: 4px solid #3A7BD5; margin: 18px 0; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header"><h1>%s</h1></div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">&copy; %s. All rights reserved.</div>
		</div>
	</body>
	</html>
	`, html.EscapeString(t.AppName), html.EscapeString(title), body, html.EscapeString(t.AppName))
}

func (t Templates) Enrollment(studentName, courseTitle string, courseID uint) Message {
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Your payment was verified and you are now enrolled in <strong>%s</strong>.</p>
		<p>Your first lecture is unlocked. Pass each lecture quiz to unlock the next one.</p>
		<a class="btn" href="%s/learn/%d">Start learning</a>`,
		html.EscapeString(studentName), html.EscapeString(courseTitle), t.BaseURL, courseID)
	return Message{Subject: "Enrollment confirmed: " + courseTitle, HTML: t.wrap("You're enrolled!", body)}
}

func (t Templates) Sale(instructorName, courseTitle, share string) Message {
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>A student just enrolled in <strong>%s</strong>.</p>
		<div class="info-box">Your share of this sale: <strong>%s</strong></div>`,
		html.EscapeString(instructorName), html.EscapeString(courseTitle), html.EscapeString(share))
	return Message{Subject: "New enrollment in " + courseTitle, HTML: t.wrap("New sale", body)}
}

func (t Templates) Certificate(studentName, courseTitle, certificateID string) Message {
	body := fmt.Sprintf(`
		<p>Congratulations %s,</p>
		<p>You have completed <strong>%s</strong> and passed the final quiz.</p>
		<div class="info-box">Certificate ID: <strong>%s</strong></div>
		<a class="btn" href="%s/certificate/%s">View certificate</a>`,
		html.EscapeString(studentName), html.EscapeString(courseTitle), html.EscapeString(certificateID), t.BaseURL, certificateID)
	return Message{Subject: "Your certificate for " + courseTitle, HTML: t.wrap("Certificate issued", body)}
}

func (t Templates) ReviewAssigned(adminName, courseTitle string) Message {
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>The course <strong>%s</strong> was submitted for review and assigned to you.</p>
		<a class="btn" href="%s/admin/reviews">Open review queue</a>`,
		html.EscapeString(adminName), html.EscapeString(courseTitle), t.BaseURL)
	return Message{Subject: "Course review assigned: " + courseTitle, HTML: t.wrap("New course to review", body)}
}

func (t Templates) ReviewDecision(instructorName, courseTitle string, approved bool, note string) Message {
	if approved {
		body := fmt.Sprintf(`
			<p>Hi %s,</p>
			<p><strong>%s</strong> was approved and is now published.</p>`,
			html.EscapeString(instructorName), html.EscapeString(courseTitle))
		return Message{Subject: "Course approved: " + courseTitle, HTML: t.wrap("Course approved", body)}
	}
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p><strong>%s</strong> was not approved.</p>
		<div class="info-box"><strong>Reviewer note:</strong> %s</div>
		<p>Update the course and submit it again.</p>`,
		html.EscapeString(instructorName), html.EscapeString(courseTitle), html.EscapeString(note))
	return Message{Subject: "Course needs changes: " + courseTitle, HTML: t.wrap("Course not approved", body)}
}
