package render

// Stylesheet is the complete popup stylesheet. Hosts inject it once; every
// rendered fragment relies only on these classes plus per-definition inline
// theme styles.
const Stylesheet = `.papapop-overlay {
  position: fixed;
  inset: 0;
  background: rgba(0, 0, 0, 0.5);
  display: flex;
  align-items: center;
  justify-content: center;
  z-index: 999999;
}
.papapop-modal {
  background: #ffffff;
  color: #1a1a1a;
  border-radius: 12px;
  box-shadow: 0 20px 60px rgba(0, 0, 0, 0.3);
  max-width: 420px;
  width: calc(100% - 32px);
  padding: 32px 24px 24px;
  position: relative;
}
.papapop-pos-bottom-left, .papapop-pos-bottom-right {
  position: fixed;
  bottom: 24px;
  max-width: 360px;
}
.papapop-pos-bottom-left { left: 24px; }
.papapop-pos-bottom-right { right: 24px; }
.papapop-close {
  position: absolute;
  top: 8px;
  right: 12px;
  border: none;
  background: none;
  font-size: 24px;
  line-height: 1;
  cursor: pointer;
  color: inherit;
  opacity: 0.6;
}
.papapop-close:hover { opacity: 1; }
.papapop-heading {
  margin: 0 0 8px;
  font-size: 20px;
  font-weight: 600;
}
.papapop-description {
  margin: 0 0 16px;
  font-size: 14px;
  opacity: 0.8;
}
.papapop-progress {
  height: 4px;
  border-radius: 2px;
  background: rgba(0, 0, 0, 0.1);
  margin-bottom: 16px;
  overflow: hidden;
}
.papapop-progress-bar {
  height: 100%;
  background: currentColor;
  transition: width 0.2s ease;
}
.papapop-options {
  display: flex;
  flex-direction: column;
  gap: 8px;
}
.papapop-option {
  padding: 12px 16px;
  border: 1px solid rgba(0, 0, 0, 0.15);
  border-radius: 8px;
  background: none;
  font-size: 15px;
  text-align: left;
  cursor: pointer;
}
.papapop-option:hover { border-color: currentColor; }
.papapop-form {
  display: flex;
  flex-direction: column;
  gap: 8px;
}
.papapop-input {
  padding: 12px 14px;
  border: 1px solid rgba(0, 0, 0, 0.2);
  border-radius: 8px;
  font-size: 15px;
}
.papapop-button {
  padding: 12px 16px;
  border: none;
  border-radius: 8px;
  background: #1a1a1a;
  color: #ffffff;
  font-size: 15px;
  font-weight: 600;
  cursor: pointer;
}
.papapop-success { text-align: center; }
.papapop-success-icon {
  font-size: 40px;
  color: #20a060;
  margin-bottom: 8px;
}
.papapop-discount-code {
  display: inline-block;
  padding: 10px 20px;
  border: 2px dashed currentColor;
  border-radius: 8px;
  font-size: 18px;
  font-weight: 700;
  letter-spacing: 1px;
}
.papapop-error {
  margin-top: 12px;
  padding: 10px 14px;
  border-radius: 8px;
  background: #fdecea;
  color: #b3261e;
  font-size: 14px;
}`
